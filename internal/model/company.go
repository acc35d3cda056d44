package model

import (
	"strconv"
	"strings"
)

// StaffRange is a parsed employee-count range. Valid is false when the source
// string could not be parsed, in which case both bounds are unknown.
type StaffRange struct {
	Lower int
	Upper int
	Valid bool
}

// ParseStaffRange parses ranges such as "51-200" or "10,001+". A "+" suffix
// means open-ended: the lower bound is reported as 0 and the number becomes
// the upper bound.
func ParseStaffRange(s string) StaffRange {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return StaffRange{}
	}
	if strings.Contains(s, "+") {
		n, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(s, "+", "")))
		if err != nil {
			return StaffRange{}
		}
		return StaffRange{Lower: 0, Upper: n, Valid: true}
	}
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return StaffRange{}
	}
	lower, err1 := strconv.Atoi(strings.TrimSpace(lo))
	upper, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil {
		return StaffRange{}
	}
	return StaffRange{Lower: lower, Upper: upper, Valid: true}
}

// IsICPFit reports whether the range is known and its upper bound does not
// exceed maxEmployees.
func (r StaffRange) IsICPFit(maxEmployees int) bool {
	return r.Valid && r.Upper <= maxEmployees
}

// companyDropFields are media and marketing fields not kept in Company.
var companyDropFields = []string{
	"Images",
	"images",
	"isClaimable",
	"backgroundCoverImages",
	"logos",
	"callToAction",
	"followerCount",
	"featuredCustomers",
	"pageVerification",
}

// Company is the typed view of a resolved company profile.
type Company struct {
	CompanyID       string     `json:"companyId"`
	Name            string     `json:"name"`
	UniversalName   string     `json:"universalName,omitempty"`
	LinkedinURL     string     `json:"linkedinUrl"`
	Website         string     `json:"website,omitempty"`
	Industry        string     `json:"industry,omitempty"`
	Description     string     `json:"description,omitempty"`
	StaffCount      int64      `json:"staffCount,omitempty"`
	StaffCountRange string     `json:"staffCountRange,omitempty"`
	Staff           StaffRange `json:"-"`
	FoundedYear     int64      `json:"founded_year,omitempty"`
}

// staffRangeString reads staffCountRange either as "51-200" or as an object
// with start/end bounds.
func staffRangeString(d Document) string {
	if s := d.String("staffCountRange"); s != "" {
		return s
	}
	r := d.Map("staffCountRange")
	if r == nil {
		return ""
	}
	start, end := r.Int("start"), r.Int("end")
	switch {
	case end > 0:
		return strconv.FormatInt(start, 10) + "-" + strconv.FormatInt(end, 10)
	case start > 0:
		return strconv.FormatInt(start, 10) + "+"
	}
	return ""
}

// CompanyFromDocument builds a Company from a raw or cleaned company document.
func CompanyFromDocument(d Document) Company {
	c := Company{
		CompanyID:       d.String("companyId"),
		Name:            d.String("name"),
		UniversalName:   d.String("universalName"),
		LinkedinURL:     d.String("linkedinUrl"),
		Website:         d.String("website"),
		Description:     d.String("description"),
		StaffCount:      d.Int("staffCount"),
		StaffCountRange: staffRangeString(d),
		FoundedYear:     d.Int("founded_year"),
	}
	if c.CompanyID == "" {
		c.CompanyID = d.String("id")
	}
	if c.FoundedYear == 0 {
		c.FoundedYear = d.Map("founded").Int("year")
	}
	if inds := d.Slice("industries"); len(inds) > 0 {
		c.Industry = AsString(inds[0])
	}
	if c.Industry == "" {
		c.Industry = d.String("industry")
	}
	c.Staff = ParseStaffRange(c.StaffCountRange)
	return c
}

// CleanCompanyDocument returns the Company-collection shape of a raw company
// document: media fields removed, founded year lifted to founded_year, and
// the parsed staff bounds stored as lower_limit/upper_limit (null when the
// range is unparseable).
func CleanCompanyDocument(raw Document) Document {
	d := raw.Without(companyDropFields...)
	if founded := d.Map("founded"); founded != nil {
		delete(d, "founded")
		for k, v := range founded {
			if k == "year" {
				k = "founded_year"
			}
			d[k] = v
		}
	}
	r := ParseStaffRange(staffRangeString(raw))
	if r.Valid {
		d["lower_limit"] = r.Lower
		d["upper_limit"] = r.Upper
	} else {
		d["lower_limit"] = nil
		d["upper_limit"] = nil
	}
	return d
}
