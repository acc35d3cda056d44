package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// ProspectSource records how a contact was discovered.
type ProspectSource string

const (
	SourceHiringTeam   ProspectSource = "hiring_team"
	SourcePeopleSearch ProspectSource = "people_search"
)

// Prospect is a bare contact reference produced by people discovery, before
// profile enrichment.
type Prospect struct {
	ProfileURL  string         `json:"profileURL"`
	FullName    string         `json:"fullName,omitempty"`
	Headline    string         `json:"headline,omitempty"`
	Username    string         `json:"username,omitempty"`
	CompanyName string         `json:"company_name"`
	JobID       string         `json:"job_id,omitempty"`
	JobURL      string         `json:"job_url,omitempty"`
	Source      ProspectSource `json:"source"`
}

// DatePart is a LinkedIn partial date; any component may be zero.
type DatePart struct {
	Year  int64 `json:"year"`
	Month int64 `json:"month"`
	Day   int64 `json:"day"`
}

// IsZero reports whether every component is unset.
func (d DatePart) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func datePartFrom(d Document) DatePart {
	return DatePart{Year: d.Int("year"), Month: d.Int("month"), Day: d.Int("day")}
}

// Position is one entry of a profile's employment history.
type Position struct {
	CompanyID              string   `json:"companyId"`
	CompanyName            string   `json:"companyName"`
	CompanyUsername        string   `json:"companyUsername"`
	CompanyURL             string   `json:"companyURL"`
	CompanyLogo            string   `json:"companyLogo"`
	CompanyIndustry        string   `json:"companyIndustry"`
	CompanyStaffCountRange string   `json:"companyStaffCountRange"`
	Title                  string   `json:"title"`
	Location               string   `json:"location"`
	Description            string   `json:"description"`
	EmploymentType         string   `json:"employmentType"`
	Start                  DatePart `json:"start"`
	End                    DatePart `json:"end"`
}

// IsCurrent reports whether the position has no end date.
func (p Position) IsCurrent() bool {
	return p.End.IsZero()
}

// PositionsFromValue converts a fullPositions payload into Positions. Anything
// other than a list yields an empty slice; non-object elements are skipped.
func PositionsFromValue(v any) []Position {
	if _, ok := v.([]any); !ok {
		if _, ok := v.([]Document); !ok {
			return []Position{}
		}
	}
	docs := AsDocuments(v)
	out := make([]Position, 0, len(docs))
	for _, p := range docs {
		out = append(out, Position{
			CompanyID:              p.String("companyId"),
			CompanyName:            p.String("companyName"),
			CompanyUsername:        p.String("companyUsername"),
			CompanyURL:             p.String("companyURL"),
			CompanyLogo:            p.String("companyLogo"),
			CompanyIndustry:        p.String("companyIndustry"),
			CompanyStaffCountRange: p.String("companyStaffCountRange"),
			Title:                  p.String("title"),
			Location:               p.String("location"),
			Description:            p.String("description"),
			EmploymentType:         p.String("employmentType"),
			Start:                  datePartFrom(p.Map("start")),
			End:                    datePartFrom(p.Map("end")),
		})
	}
	return out
}

var folder = cases.Fold()

// SameCompanyName compares company names ignoring case and surrounding space.
func SameCompanyName(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return folder.String(a) == folder.String(b)
}

// LatestExperience selects the position that best represents where a person
// works now: the first position at targetCompany when given, else the first
// position with no end date, else the first position. ok is false for an
// empty list.
func LatestExperience(positions []Position, targetCompany string) (Position, bool) {
	if len(positions) == 0 {
		return Position{}, false
	}
	if strings.TrimSpace(targetCompany) != "" {
		for _, p := range positions {
			if SameCompanyName(p.CompanyName, targetCompany) {
				return p, true
			}
		}
	}
	for _, p := range positions {
		if p.IsCurrent() {
			return p, true
		}
	}
	return positions[0], true
}

// SkillNames flattens a list of skill objects to their names. Non-list input
// yields an empty slice.
func SkillNames(v any) []string {
	if _, ok := v.([]any); !ok {
		return []string{}
	}
	docs := AsDocuments(v)
	out := make([]string, 0, len(docs))
	for _, s := range docs {
		out = append(out, s.String("name"))
	}
	return out
}

// Contact is an enriched prospect: profile fields plus the flattened latest
// experience and geo address.
type Contact struct {
	ProfileURL string         `json:"profileURL"`
	Username   string         `json:"username"`
	FirstName  string         `json:"firstName"`
	LastName   string         `json:"lastName"`
	Headline   string         `json:"headline,omitempty"`
	Summary    string         `json:"summary,omitempty"`
	Company    string         `json:"company"`
	JobID      string         `json:"job_id,omitempty"`
	JobURL     string         `json:"job_url,omitempty"`
	Source     ProspectSource `json:"source,omitempty"`

	CompanyID              string `json:"companyId,omitempty"`
	CompanyName            string `json:"companyName,omitempty"`
	CompanyUsername        string `json:"companyUsername,omitempty"`
	CompanyURL             string `json:"companyURL,omitempty"`
	CompanyIndustry        string `json:"companyIndustry,omitempty"`
	CompanyStaffCountRange string `json:"companyStaffCountRange,omitempty"`
	Title                  string `json:"title,omitempty"`
	Location               string `json:"location,omitempty"`
	Description            string `json:"description,omitempty"`
	EmploymentType         string `json:"employmentType,omitempty"`

	FullAddress string     `json:"full_address,omitempty"`
	Skills      []string   `json:"clean_skills"`
	Positions   []Position `json:"processed_fullPositions"`
}

// FullName joins first and last name.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ContactFromProfile flattens a raw profile document for a prospect. The
// latest experience is selected with no target company so that the company
// match check afterwards compares against where the person actually works.
func ContactFromProfile(profile Document, p Prospect) Contact {
	c := Contact{
		ProfileURL: p.ProfileURL,
		Username:   profile.String("username"),
		FirstName:  profile.String("firstName"),
		LastName:   profile.String("lastName"),
		Headline:   profile.String("headline"),
		Summary:    profile.String("summary"),
		Company:    p.CompanyName,
		JobID:      p.JobID,
		JobURL:     p.JobURL,
		Source:     p.Source,
		Positions:  PositionsFromValue(profile["fullPositions"]),
		Skills:     SkillNames(profile["skills"]),
	}
	if c.Username == "" {
		c.Username = p.Username
	}
	if c.Headline == "" {
		c.Headline = p.Headline
	}
	if latest, ok := LatestExperience(c.Positions, ""); ok {
		c.CompanyID = latest.CompanyID
		c.CompanyName = latest.CompanyName
		c.CompanyUsername = latest.CompanyUsername
		c.CompanyURL = latest.CompanyURL
		c.CompanyIndustry = latest.CompanyIndustry
		c.CompanyStaffCountRange = latest.CompanyStaffCountRange
		c.Title = latest.Title
		c.Location = latest.Location
		c.Description = latest.Description
		c.EmploymentType = latest.EmploymentType
	}
	c.FullAddress = profile.Map("geo").String("full")
	return c
}

// WorksAt reports whether the contact's current company matches the company
// it was discovered under.
func (c Contact) WorksAt() bool {
	return SameCompanyName(c.Company, c.CompanyName)
}
