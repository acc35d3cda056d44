package model

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// EmailSource records which lookup produced a contact's email.
type EmailSource string

const (
	EmailSourceURL        EmailSource = "url_lookup"
	EmailSourceNameDomain EmailSource = "name_domain"
	EmailSourceFallback   EmailSource = "fallback"
)

// EmailLookup is the flattened result of resolving a contact's email.
type EmailLookup struct {
	ProfileURL         string      `json:"profileURL"`
	Name               string      `json:"name,omitempty"`
	FirstName          string      `json:"firstName,omitempty"`
	LastName           string      `json:"lastName,omitempty"`
	Emails             []string    `json:"emails_list,omitempty"`
	Email              string      `json:"emails,omitempty"`
	Source             EmailSource `json:"email_source,omitempty"`
	SMTPStatus         string      `json:"smtp_status,omitempty"`
	CurrentJobCompany  string      `json:"currentJob_companyName,omitempty"`
	CurrentJobPosition string      `json:"currentJob_position,omitempty"`
	CurrentJobSite     string      `json:"currentJob_site,omitempty"`
	SocialLink         string      `json:"social_link,omitempty"`
	SocialSource       string      `json:"social_source,omitempty"`
	Domain             string      `json:"domain,omitempty"`
}

// HasEmail reports whether an email has been resolved.
func (l EmailLookup) HasEmail() bool {
	return l.Email != ""
}

// CollapseEmail reduces an email value of unknown shape to one address: the
// first element of a list, or a trimmed string. Any other shape (nil, NaN,
// empty list, empty string) reports ok=false.
func CollapseEmail(v any) (string, bool) {
	switch e := v.(type) {
	case []string:
		if len(e) > 0 {
			return CollapseEmail(e[0])
		}
	case []any:
		if len(e) > 0 {
			if d := AsDocument(e[0]); d != nil {
				return CollapseEmail(d["email"])
			}
			return CollapseEmail(e[0])
		}
	case string:
		if s := strings.TrimSpace(e); s != "" {
			return s, true
		}
	case float64:
		if math.IsNaN(e) {
			return "", false
		}
	}
	return "", false
}

// FallbackEmail synthesizes the placeholder address used when no lookup
// resolved an email.
func FallbackEmail(firstName, domain string) string {
	return firstName + "@" + domain
}

// SequenceLength is the number of emails in an outreach cadence.
const SequenceLength = 5

// EmailSequenceItem is one generated email. Fields missing from the model
// response are empty strings.
type EmailSequenceItem struct {
	Sequence string `json:"sequence"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// Position returns the 1-based position from Sequence, or 0 when missing or
// unparseable.
func (i EmailSequenceItem) Position() int {
	n, err := strconv.Atoi(strings.TrimSpace(i.Sequence))
	if err != nil {
		return 0
	}
	return n
}

// EmailData holds a flattened cadence as Subject N / Email Body N columns.
type EmailData struct {
	Subjects [SequenceLength]string
	Bodies   [SequenceLength]string
}

// Empty reports whether no slot is filled.
func (e EmailData) Empty() bool {
	for i := 0; i < SequenceLength; i++ {
		if e.Subjects[i] != "" || e.Bodies[i] != "" {
			return false
		}
	}
	return true
}

// SubjectKey and BodyKey name the flattened columns for position n (1-based).
func SubjectKey(n int) string { return "Subject " + strconv.Itoa(n) }
func BodyKey(n int) string    { return "Email Body " + strconv.Itoa(n) }

// FlattenSequence places items into their numbered slots in response order.
// An item without a usable sequence number takes its ordinal position; items
// outside 1..SequenceLength or targeting an already filled slot are dropped.
func FlattenSequence(items []EmailSequenceItem) EmailData {
	var out EmailData
	var filled [SequenceLength]bool
	for idx, it := range items {
		pos := it.Position()
		if pos == 0 {
			pos = idx + 1
		}
		if pos < 1 || pos > SequenceLength || filled[pos-1] {
			continue
		}
		filled[pos-1] = true
		out.Subjects[pos-1] = it.Subject
		out.Bodies[pos-1] = it.Body
	}
	return out
}

// MarshalJSON renders the slots as {"Subject 1": ..., "Email Body 1": ...}.
func (e EmailData) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, 2*SequenceLength)
	for i := 0; i < SequenceLength; i++ {
		m[SubjectKey(i+1)] = e.Subjects[i]
		m[BodyKey(i+1)] = e.Bodies[i]
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the column form written by MarshalJSON.
func (e *EmailData) UnmarshalJSON(b []byte) error {
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	for i := 0; i < SequenceLength; i++ {
		e.Subjects[i] = m[SubjectKey(i+1)]
		e.Bodies[i] = m[BodyKey(i+1)]
	}
	return nil
}

var closingSalutationRe = regexp.MustCompile(`(?is)(<br>\s*)*\b(Best regards|Warm regards|Thank you|Regards|Thanks|Cheers|Best)[\s,]*<br>.*$`)

// StripClosing removes a trailing sign-off ("Best,<br>Name") from a body.
func StripClosing(body string) string {
	return strings.TrimSpace(closingSalutationRe.ReplaceAllString(body, ""))
}

// RemoveLineBreaks collapses a body to one line by removing real newlines
// and escaped "\n" sequences.
func RemoveLineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, `\n`, "")
	return strings.TrimSpace(s)
}
