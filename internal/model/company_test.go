package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStaffRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want StaffRange
	}{
		{"51-200", StaffRange{Lower: 51, Upper: 200, Valid: true}},
		{"0-10", StaffRange{Lower: 0, Upper: 10, Valid: true}},
		{"500+", StaffRange{Lower: 0, Upper: 500, Valid: true}},
		{"10,001+", StaffRange{Lower: 0, Upper: 10001, Valid: true}},
		{" 201 - 500 ", StaffRange{Lower: 201, Upper: 500, Valid: true}},
		{"N/A", StaffRange{}},
		{"", StaffRange{}},
		{"ten-twenty", StaffRange{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseStaffRange(tt.in))
		})
	}
}

func TestIsICPFit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"51-200", true},
		{"0-10", true},
		{"500+", false},
		{"1000+", false},
		{"201-500", false},
		{"N/A", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseStaffRange(tt.in).IsICPFit(200))
		})
	}
}

func TestCompanyFromDocument(t *testing.T) {
	t.Parallel()

	d := Document{
		"id":              float64(1441),
		"name":            "Acme",
		"linkedinUrl":     "https://www.linkedin.com/company/acme/",
		"staffCountRange": map[string]any{"start": float64(11), "end": float64(50)},
		"founded":         map[string]any{"year": float64(2012)},
		"industries":      []any{"Software Development", "IT"},
	}
	c := CompanyFromDocument(d)
	assert.Equal(t, "1441", c.CompanyID)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "11-50", c.StaffCountRange)
	assert.Equal(t, int64(2012), c.FoundedYear)
	assert.Equal(t, "Software Development", c.Industry)
	assert.True(t, c.Staff.IsICPFit(200))
}

func TestCompanyFromDocument_OpenEndedObjectRange(t *testing.T) {
	t.Parallel()

	c := CompanyFromDocument(Document{"staffCountRange": map[string]any{"start": float64(10001)}})
	assert.Equal(t, "10001+", c.StaffCountRange)
	assert.False(t, c.Staff.IsICPFit(200))
}

func TestCleanCompanyDocument(t *testing.T) {
	t.Parallel()

	raw := Document{
		"companyId":       "7",
		"logos":           []any{"a.png"},
		"followerCount":   float64(900),
		"founded":         map[string]any{"year": float64(1999)},
		"staffCountRange": "51-200",
	}
	d := CleanCompanyDocument(raw)
	assert.NotContains(t, d, "logos")
	assert.NotContains(t, d, "followerCount")
	assert.NotContains(t, d, "founded")
	assert.Equal(t, float64(1999), d["founded_year"])
	assert.Equal(t, 51, d["lower_limit"])
	assert.Equal(t, 200, d["upper_limit"])
	// raw untouched
	assert.Contains(t, raw, "logos")

	bad := CleanCompanyDocument(Document{"staffCountRange": "unknown"})
	assert.Contains(t, bad, "upper_limit")
	assert.Nil(t, bad["upper_limit"])
}
