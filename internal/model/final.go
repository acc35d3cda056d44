package model

import "time"

// FinalRecord is the denormalized per-contact output row, keyed by ProfileURL.
type FinalRecord struct {
	ProfileURL  string `json:"profileURL"`
	Username    string `json:"username"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	FullName    string `json:"fullName"`
	Headline    string `json:"headline,omitempty"`
	Title       string `json:"title,omitempty"`
	Company     string `json:"company"`
	CompanyID   string `json:"companyId,omitempty"`
	Industry    string `json:"companyIndustry,omitempty"`
	CompanySite string `json:"currentJob_site,omitempty"`
	FullAddress string `json:"full_address,omitempty"`

	Email       string      `json:"emails"`
	EmailSource EmailSource `json:"email_source,omitempty"`

	JobID    string `json:"job_id,omitempty"`
	JobTitle string `json:"job_title,omitempty"`
	JobURL   string `json:"job_url,omitempty"`

	Questions map[string]string `json:"questions"`
	Answers   []string          `json:"-"`
	EmailData EmailData         `json:"email_data"`

	QueryID   string    `json:"query_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// HasEmail reports whether the record can be pushed to the outreach list.
func (r FinalRecord) HasEmail() bool {
	return r.Email != ""
}
