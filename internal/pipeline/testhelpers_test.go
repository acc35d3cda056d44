package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
	anthropicmocks "github.com/sells-group/leadgen-cli/pkg/anthropic/mocks"
	rapidmocks "github.com/sells-group/leadgen-cli/pkg/rapidapi/mocks"
	"github.com/sells-group/leadgen-cli/pkg/snov"
	snovmocks "github.com/sells-group/leadgen-cli/pkg/snov/mocks"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const (
	acmeJobURL     = "https://www.linkedin.com/jobs/view/101"
	acmeCompanyURL = "https://www.linkedin.com/company/acme/"
	janeProfileURL = "https://www.linkedin.com/in/jane-doe"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Anthropic.Model = "claude-test"
	cfg.Anthropic.MaxTokens = 5000
	cfg.Anthropic.InputPrice = 3
	cfg.Anthropic.OutputPrice = 15
	cfg.Snov.ListID = "list-1"
	cfg.Snov.PollInterval = time.Millisecond
	cfg.Snov.PollTimeout = time.Second
	cfg.Pipeline = config.PipelineConfig{
		MinCompanies:        1,
		MaxAttempts:         3,
		ICPMaxEmployees:     200,
		PostFreshness:       30 * 24 * time.Hour,
		QuestionnaireWindow: 60 * 24 * time.Hour,
		PeopleTargetMin:     5,
		PeopleTargetMax:     10,
		FallbackEmailDomain: "yopmail.com",
		Retry:               config.RetryConfig{MaxAttempts: 2},
	}
	return cfg
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "leadgen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

type fixture struct {
	cfg    *config.Config
	store  *store.SQLiteStore
	source *rapidmocks.MockClient
	finder *snovmocks.MockClient
	ai     *anthropicmocks.MockClient

	mu       sync.Mutex
	progress []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		cfg:    testConfig(),
		store:  newTestStore(t),
		source: rapidmocks.NewMockClient(t),
		finder: snovmocks.NewMockClient(t),
		ai:     anthropicmocks.NewMockClient(t),
	}
}

func (f *fixture) pipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	base := []Option{
		WithSleep(noSleep),
		WithClock(func() time.Time { return testNow }),
		WithProgress(func(msg string) {
			f.mu.Lock()
			f.progress = append(f.progress, msg)
			f.mu.Unlock()
		}),
	}
	p, err := New(f.cfg, f.store, f.source, f.finder, f.ai, append(base, opts...)...)
	require.NoError(t, err)
	return p
}

// newTestRun returns a run for exercising single stages.
func newTestRun(p *Pipeline) *run {
	return &run{
		p:      p,
		q:      NewQuery(model.Filters{Keywords: []string{"golang"}}),
		log:    zap.NewNop(),
		ledger: cost.NewLedger(p.calc),
	}
}

func acmeJobItem() map[string]any {
	return map[string]any{
		"id":       "101",
		"title":    "Backend Engineer",
		"url":      acmeJobURL,
		"postDate": "2025-05-20",
		"company": map[string]any{
			"name": "Acme",
			"url":  "https://www.linkedin.com/company/acme/life",
		},
		"referenceId": "ref-1",
	}
}

func acmeCompany(staff string) map[string]any {
	return map[string]any{
		"id":              "555",
		"name":            "Acme",
		"universalName":   "acme",
		"website":         "https://www.acme.io",
		"staffCountRange": staff,
		"industries":      []any{"Software Development"},
		"logos":           []any{"logo.png"},
	}
}

func janeProfile() map[string]any {
	return map[string]any{
		"username":  "jane-doe",
		"firstName": "Jane",
		"lastName":  "Doe",
		"headline":  "Head of Talent at Acme",
		"fullPositions": []any{
			map[string]any{"companyName": "Acme", "title": "Head of Talent", "companyIndustry": "Software Development"},
		},
		"skills": []any{map[string]any{"name": "Hiring"}},
		"geo":    map[string]any{"full": "Austin, Texas, United States"},
	}
}

const sequenceXML = `
<emails>
<email><sequence>1</sequence><subject>Scaling Acme's backend team</subject><body>Hi Jane,\nSaw the Backend Engineer opening.<br>Best,<br>Sam</body></email>
<email><sequence>2</sequence><subject>Following up</subject><body>Quick follow up.</body></email>
<email><sequence>3</sequence><subject>One more idea</subject><body>An idea for Acme.</body></email>
</emails>`

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 1000, OutputTokens: 500},
	}
}

// isQuestionnaire matches requests whose system prompt is a cache breakpoint.
func isQuestionnaire(req anthropic.MessageRequest) bool {
	return len(req.System) > 0 && req.System[0].CacheTTL != ""
}

// expectAcmeDiscovery sets up one job at an ICP-fit Acme with Jane on the
// hiring team and her profile and posts.
func (f *fixture) expectAcmeDiscovery() {
	f.source.On("SearchJobs", mock.Anything, mock.Anything).Return([]map[string]any{acmeJobItem()}, nil)
	f.source.On("GetCompanyByUsername", mock.Anything, "acme").Return(acmeCompany("51-200"), nil)
	f.source.On("GetHiringTeam", mock.Anything, "101", acmeJobURL).Return([]map[string]any{
		{"fullName": "Jane Doe", "url": janeProfileURL + "/", "headline": "Head of Talent"},
	}, nil)
	f.source.On("GetProfile", mock.Anything, janeProfileURL).Return(janeProfile(), nil)
	f.source.On("GetProfilePosts", mock.Anything, "jane-doe").Return([]map[string]any{
		{"postUrl": "https://www.linkedin.com/posts/1", "text": "We're hiring backend engineers", "postedDate": "2025-05-20 14:12:33 +0000 UTC"},
	}, nil)
}

func (f *fixture) expectGeneration() {
	f.ai.On("CreateMessage", mock.Anything, mock.MatchedBy(isQuestionnaire)).
		Return(textResponse(`{"question": "What is the full legal name of the company?", "answer": "Acme Inc."}]`), nil)
	f.ai.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return !isQuestionnaire(req)
	})).Return(textResponse(sequenceXML), nil)
}

func (f *fixture) expectURLLookup(email string) {
	f.finder.On("AddURLForSearch", mock.Anything, janeProfileURL).Return(nil)
	resp := &snov.URLSearchResponse{Success: true}
	if email != "" {
		resp.Data = &snov.Person{
			Name:       "Jane Doe",
			FirstName:  "Jane",
			LastName:   "Doe",
			Emails:     []snov.EmailEntry{{Email: email, Status: "valid"}},
			CurrentJob: []snov.Job{{CompanyName: "Acme", Position: "Head of Talent", Site: "https://www.acme.io"}},
		}
	}
	f.finder.On("GetEmailsFromURL", mock.Anything, janeProfileURL).Return(resp, nil)
}
