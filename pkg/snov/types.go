package snov

import "strings"

// Task statuses reported by the v2 asynchronous endpoints.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// EmailEntry is one address returned for a person.
type EmailEntry struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// Job is one position in a person's job history.
type Job struct {
	CompanyName string `json:"companyName"`
	Position    string `json:"position"`
	SocialLink  string `json:"socialLink"`
	Site        string `json:"site"`
	Locality    string `json:"locality"`
	Country     string `json:"country"`
	Industry    string `json:"industry"`
	Size        string `json:"size"`
}

// Social is a social profile link.
type Social struct {
	Link   string `json:"link"`
	Source string `json:"source"`
}

// Person is the profile returned by the URL lookup.
type Person struct {
	Name        string       `json:"name"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	SourcePage  string       `json:"sourcePage"`
	Emails      []EmailEntry `json:"emails"`
	CurrentJob  []Job        `json:"currentJob"`
	PreviousJob []Job        `json:"previousJob"`
	Social      []Social     `json:"social"`
}

// EmailAddresses returns the non-empty addresses in response order.
func (p *Person) EmailAddresses() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Emails))
	for _, e := range p.Emails {
		if s := strings.TrimSpace(e.Email); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CurrentJobAt returns the first current job, or the zero Job.
func (p *Person) CurrentJobAt() Job {
	if p == nil || len(p.CurrentJob) == 0 {
		return Job{}
	}
	return p.CurrentJob[0]
}

// FirstSocial returns the first social link, or the zero Social.
func (p *Person) FirstSocial() Social {
	if p == nil || len(p.Social) == 0 {
		return Social{}
	}
	return p.Social[0]
}

// URLSearchResponse is the /v1/get-emails-from-url body. Data is nil when
// the lookup found nobody.
type URLSearchResponse struct {
	Success bool    `json:"success"`
	Data    *Person `json:"data"`
}

// NameDomainRow is one person submitted to the name+domain search.
type NameDomainRow struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Domain    string `json:"domain"`
}

type startNameDomainRequest struct {
	Rows []NameDomainRow `json:"rows"`
}

type startNameDomainResponse struct {
	Data struct {
		TaskHash string `json:"task_hash"`
	} `json:"data"`
}

// EmailResult is one address found by the name+domain search.
type EmailResult struct {
	Email         string `json:"email"`
	SMTPStatus    string `json:"smtp_status"`
	IsValidFormat bool   `json:"is_valid_format"`
	IsDisposable  bool   `json:"is_disposable"`
	IsWebmail     bool   `json:"is_webmail"`
	IsGibberish   bool   `json:"is_gibberish"`
}

// NameDomainEntry groups the results for one submitted row.
type NameDomainEntry struct {
	People string        `json:"people"`
	Result []EmailResult `json:"result"`
}

// NameDomainResult is the /v2/emails-by-domain-by-name/result body.
type NameDomainResult struct {
	Status string            `json:"status"`
	Data   []NameDomainEntry `json:"data"`
	Meta   struct {
		TaskHash string          `json:"task_hash"`
		Rows     []NameDomainRow `json:"rows"`
	} `json:"meta"`
}

// Done reports whether the task has left the in-progress state. A response
// without a status counts as done once it carries data.
func (r *NameDomainResult) Done() bool {
	if r == nil || r.Status == StatusInProgress {
		return false
	}
	return r.Status != "" || len(r.Data) > 0
}

// First returns the first email result of the first row.
func (r *NameDomainResult) First() (EmailResult, bool) {
	if r == nil {
		return EmailResult{}, false
	}
	for _, d := range r.Data {
		for _, res := range d.Result {
			if strings.TrimSpace(res.Email) != "" {
				return res, true
			}
		}
	}
	return EmailResult{}, false
}

// ProspectRecord is a contact added to an outreach list. CustomFields are
// sent as customFields[name].
type ProspectRecord struct {
	Email        string
	FullName     string
	FirstName    string
	LastName     string
	Country      string
	LinkedInURL  string
	Position     string
	CompanyName  string
	CompanySite  string
	ListID       string
	CustomFields map[string]string
}

// AddProspectResponse is the /v1/add-prospect-to-list body.
type AddProspectResponse struct {
	Success bool   `json:"success"`
	ID      any    `json:"id"`
	Added   bool   `json:"added"`
	Updated bool   `json:"updated"`
	Errors  any    `json:"errors"`
	Message string `json:"message"`
}
