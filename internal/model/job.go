package model

import (
	"regexp"
	"strings"
	"time"
)

var (
	companyUsernameRe = regexp.MustCompile(`/company/([^/?#]+)`)
	lifeSuffixRe      = regexp.MustCompile(`/life$`)
)

// Job is a cleaned job posting. Raw payloads are kept separately in RawJobs.
type Job struct {
	JobID           string    `json:"job_id"`
	Title           string    `json:"title"`
	JobURL          string    `json:"job_url"`
	CompanyName     string    `json:"company_name"`
	CompanyURL      string    `json:"company_url"`
	CompanyUsername string    `json:"company_username"`
	LinkedinURL     string    `json:"linkedinUrl"`
	Location        string    `json:"location,omitempty"`
	Type            string    `json:"type,omitempty"`
	PostDate        string    `json:"postDate,omitempty"`
	PostedAt        time.Time `json:"posted_at,omitzero"`
}

// CompanyUsernameFromURL extracts the LinkedIn company slug from a company
// URL such as https://www.linkedin.com/company/acme/life.
func CompanyUsernameFromURL(companyURL string) (string, bool) {
	m := companyUsernameRe.FindStringSubmatch(companyURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// NormalizeCompanyURL maps any LinkedIn company page URL (about, life,
// jobs, with or without a trailing slash) onto one canonical form so a company
// is identified by a single URL regardless of which page a job links to.
func NormalizeCompanyURL(companyURL string) string {
	if username, ok := CompanyUsernameFromURL(companyURL); ok {
		return "https://www.linkedin.com/company/" + strings.ToLower(username) + "/"
	}
	return lifeSuffixRe.ReplaceAllString(strings.TrimSpace(companyURL), "")
}

// JobFromDocument builds a Job from a flattened search result. The second
// return value is false when the posting has no usable company URL.
func JobFromDocument(d Document) (Job, bool) {
	j := Job{
		JobID:       d.String("job_id"),
		Title:       d.String("title"),
		JobURL:      d.String("url"),
		CompanyName: d.String("company_name"),
		CompanyURL:  d.String("company_url"),
		Location:    d.String("location"),
		Type:        d.String("type"),
		PostDate:    d.String("postDate"),
	}
	if j.JobURL == "" {
		j.JobURL = d.String("job_url")
	}
	if j.PostDate == "" {
		j.PostDate = d.String("postAt")
	}
	j.PostedAt = parsePostedAt(j.PostDate, d.Int("postedTimestamp"))

	if j.JobID == "" || j.CompanyURL == "" {
		return j, false
	}
	username, ok := CompanyUsernameFromURL(j.CompanyURL)
	if !ok {
		return j, false
	}
	j.CompanyUsername = username
	j.LinkedinURL = NormalizeCompanyURL(j.CompanyURL)
	return j, true
}

var postDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parsePostedAt(postDate string, tsMillis int64) time.Time {
	if tsMillis > 0 {
		return time.UnixMilli(tsMillis).UTC()
	}
	for _, layout := range postDateLayouts {
		if t, err := time.Parse(layout, postDate); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
