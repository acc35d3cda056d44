package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// DatePosted is the job search recency bucket.
type DatePosted string

const (
	DatePostedAnyTime     DatePosted = "anyTime"
	DatePostedPastMonth   DatePosted = "pastMonth"
	DatePostedPastWeek    DatePosted = "pastWeek"
	DatePostedPast24Hours DatePosted = "past24Hours"
)

// JobType filters by employment type.
type JobType string

const (
	JobTypeFullTime   JobType = "fullTime"
	JobTypePartTime   JobType = "partTime"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
)

// OnsiteRemote filters by workplace type.
type OnsiteRemote string

const (
	OnsiteRemoteOnSite OnsiteRemote = "onSite"
	OnsiteRemoteRemote OnsiteRemote = "remote"
	OnsiteRemoteHybrid OnsiteRemote = "hybrid"
)

// SortOrder controls job search ordering.
type SortOrder string

const (
	SortMostRelevant SortOrder = "mostRelevant"
	SortMostRecent   SortOrder = "mostRecent"
)

// Filters are the search criteria for one pipeline run.
type Filters struct {
	Keywords     []string     `json:"keywords"`
	LocationID   string       `json:"location_id,omitempty"`
	DatePosted   DatePosted   `json:"date_posted"`
	JobType      JobType      `json:"job_type,omitempty"`
	OnsiteRemote OnsiteRemote `json:"onsite_remote,omitempty"`
	FunctionID   string       `json:"function_id,omitempty"`
	IndustryID   string       `json:"industry_id,omitempty"`
	Sort         SortOrder    `json:"sort"`
}

// SplitKeywords splits each input on commas, trims whitespace and drops
// empty entries. Order is preserved.
func SplitKeywords(raw ...string) []string {
	var out []string
	for _, r := range raw {
		for _, kw := range strings.Split(r, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				out = append(out, kw)
			}
		}
	}
	return out
}

// Normalize splits comma-joined keywords and applies default buckets.
func (f *Filters) Normalize() {
	f.Keywords = SplitKeywords(f.Keywords...)
	if f.DatePosted == "" {
		f.DatePosted = DatePostedPastMonth
	}
	if f.Sort == "" {
		f.Sort = SortMostRelevant
	}
}

// Validate checks enum fields and that at least one keyword is present.
func (f Filters) Validate() error {
	if len(SplitKeywords(f.Keywords...)) == 0 {
		return eris.New("filters: at least one keyword is required")
	}
	switch f.DatePosted {
	case "", DatePostedAnyTime, DatePostedPastMonth, DatePostedPastWeek, DatePostedPast24Hours:
	default:
		return eris.Errorf("filters: invalid date_posted %q", f.DatePosted)
	}
	switch f.JobType {
	case "", JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship:
	default:
		return eris.Errorf("filters: invalid job_type %q", f.JobType)
	}
	switch f.OnsiteRemote {
	case "", OnsiteRemoteOnSite, OnsiteRemoteRemote, OnsiteRemoteHybrid:
	default:
		return eris.Errorf("filters: invalid onsite_remote %q", f.OnsiteRemote)
	}
	switch f.Sort {
	case "", SortMostRelevant, SortMostRecent:
	default:
		return eris.Errorf("filters: invalid sort %q", f.Sort)
	}
	return nil
}
