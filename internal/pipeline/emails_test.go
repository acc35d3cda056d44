package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/snov"
)

func TestRegisteredDomain(t *testing.T) {
	tests := []struct {
		site string
		want string
	}{
		{"https://www.acme.io", "acme.io"},
		{"http://shop.example.co.uk/about", "example.co.uk"},
		{"acme.com", "acme.com"},
		{"WWW.Acme.COM.", "acme.com"},
		{"", ""},
		{"localhost", ""},
	}
	for _, tt := range tests {
		t.Run(tt.site, func(t *testing.T) {
			assert.Equal(t, tt.want, registeredDomain(tt.site))
		})
	}
}

func TestEnrichEmails_FailuresLeaveContactWithoutEmail(t *testing.T) {
	f := newFixture(t)
	bob := model.Contact{ProfileURL: "https://www.linkedin.com/in/bob", FirstName: "Bob", Company: "Acme"}
	jane := model.Contact{ProfileURL: janeProfileURL, FirstName: "Jane", LastName: "Doe", Company: "Acme"}

	f.finder.On("AddURLForSearch", mock.Anything, bob.ProfileURL).Return(errors.New("boom"))
	f.expectURLLookup("jane@acme.io")

	r := newTestRun(f.pipeline(t))
	out := r.enrichEmails(context.Background(), []model.Contact{bob, jane}, nil)

	require.Len(t, out, 2)
	assert.False(t, out[bob.ProfileURL].HasEmail())
	assert.Equal(t, "jane@acme.io", out[janeProfileURL].Email)
	assert.Equal(t, "acme.io", out[janeProfileURL].Domain)
	assert.Equal(t, "https://www.acme.io", out[janeProfileURL].CurrentJobSite)
	assert.Equal(t, 1, r.q.Counts.EmailsResolved)
	f.finder.AssertNotCalled(t, "StartNameDomainSearch", mock.Anything, mock.Anything)
}

func TestEnrichEmails_PhaseBWaitsOnce(t *testing.T) {
	f := newFixture(t)
	f.cfg.Snov.PhaseBDelay = 30 * time.Second

	var slept int
	sleep := func(context.Context, time.Duration) error {
		slept++
		return nil
	}

	contacts := []model.Contact{
		{ProfileURL: "https://www.linkedin.com/in/a", FirstName: "Ann", LastName: "Lee", Company: "Acme"},
		{ProfileURL: "https://www.linkedin.com/in/b", FirstName: "Ben", LastName: "Ray", Company: "Acme"},
	}
	accts := []*account{{name: "Acme", company: model.Company{Website: "acme.io"}}}
	for i, c := range contacts {
		f.finder.On("AddURLForSearch", mock.Anything, c.ProfileURL).Return(nil)
		f.finder.On("GetEmailsFromURL", mock.Anything, c.ProfileURL).Return(&snov.URLSearchResponse{}, nil)
		hash := []string{"t-a", "t-b"}[i]
		f.finder.On("StartNameDomainSearch", mock.Anything, snov.NameDomainRow{
			FirstName: c.FirstName, LastName: c.LastName, Domain: "acme.io",
		}).Return(hash, nil)
	}
	f.finder.On("GetNameDomainResult", mock.Anything, "t-a").Return(&snov.NameDomainResult{
		Status: snov.StatusCompleted,
		Data:   []snov.NameDomainEntry{{Result: []snov.EmailResult{{Email: "ann@acme.io", SMTPStatus: "valid"}}}},
	}, nil)
	f.finder.On("GetNameDomainResult", mock.Anything, "t-b").Return(nil, errors.New("task expired"))

	r := newTestRun(f.pipeline(t, WithSleep(sleep)))
	out := r.enrichEmails(context.Background(), contacts, accts)

	assert.Equal(t, 1, slept)
	assert.Equal(t, "ann@acme.io", out["https://www.linkedin.com/in/a"].Email)
	assert.Equal(t, model.EmailSourceNameDomain, out["https://www.linkedin.com/in/a"].Source)
	assert.Equal(t, "valid", out["https://www.linkedin.com/in/a"].SMTPStatus)
	assert.False(t, out["https://www.linkedin.com/in/b"].HasEmail())
}
