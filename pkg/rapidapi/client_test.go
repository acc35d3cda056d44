package rapidapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

func newTestServer(t *testing.T, handler http.HandlerFunc, opts ...Option) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", append([]Option{WithBaseURL(srv.URL)}, opts...)...)
}

func TestSearchJobs(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/search-jobs", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-rapidapi-key"))
		assert.True(t, strings.HasPrefix(r.Header.Get("x-rapidapi-host"), "127.0.0.1"))

		q := r.URL.Query()
		assert.Equal(t, "golang", q.Get("keywords"))
		assert.Equal(t, "92000000", q.Get("locationId"))
		assert.Equal(t, "0", q.Get("start"))
		assert.False(t, q.Has("jobType"))
		assert.False(t, q.Has("industryIds"))

		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"1","title":"Go Dev"},{"id":"2"}]}`))
	})

	jobs, err := c.SearchJobs(context.Background(), JobSearchParams{Keywords: "golang", LocationID: "92000000"})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Go Dev", jobs[0]["title"])
}

func TestGetHiringTeam(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-hiring-team", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("id"))
		assert.Equal(t, "https://www.linkedin.com/jobs/view/42", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte(`{"data":{"items":[{"fullName":"Ann Lee","url":"https://www.linkedin.com/in/annlee"}]}}`))
	})

	team, err := c.GetHiringTeam(context.Background(), "42", "https://www.linkedin.com/jobs/view/42")
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, "Ann Lee", team[0]["fullName"])
}

func TestSearchPeople(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search-people", r.URL.Path)
		assert.Equal(t, "CEO", r.URL.Query().Get("keywords"))
		assert.Equal(t, "Acme", r.URL.Query().Get("company"))
		_, _ = w.Write([]byte(`{"data":{"items":[]}}`))
	})

	people, err := c.SearchPeople(context.Background(), "CEO", "Acme")
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestGetProfile(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-profile-data-by-url", r.URL.Path)
		assert.Equal(t, "https://www.linkedin.com/in/annlee", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte(`{"username":"annlee","firstName":"Ann"}`))
	})

	profile, err := c.GetProfile(context.Background(), "https://www.linkedin.com/in/annlee")
	require.NoError(t, err)
	assert.Equal(t, "annlee", profile["username"])
}

func TestGetProfilePosts(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-profile-posts", r.URL.Path)
		assert.Equal(t, "annlee", r.URL.Query().Get("username"))
		_, _ = w.Write([]byte(`{"data":[{"postUrl":"https://www.linkedin.com/posts/1","text":"hello"}]}`))
	})

	posts, err := c.GetProfilePosts(context.Background(), "annlee")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "hello", posts[0]["text"])
}

func TestGetCompany(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get-company-details":
			assert.Equal(t, "acme", r.URL.Query().Get("username"))
			_, _ = w.Write([]byte(`{"data":{"id":"100","name":"Acme"}}`))
		case "/get-company-details-by-id":
			assert.Equal(t, "100", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(`{"data":{"id":"100","name":"Acme"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	byName, err := c.GetCompanyByUsername(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", byName["name"])

	byID, err := c.GetCompanyByID(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, "100", byID["id"])
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, rateLimited: true},
		{name: "server error", status: http.StatusInternalServerError},
		{name: "forbidden", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			})

			_, err := c.GetProfile(context.Background(), "https://www.linkedin.com/in/x")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.HTTPStatus())
			assert.Contains(t, apiErr.Body, "nope")
			assert.Equal(t, tt.rateLimited, resilience.IsRateLimited(err))
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.GetProfilePosts(context.Background(), "annlee")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestRateLimitHonorsContext(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}, WithRateLimit(0.001))

	ctx := context.Background()
	_, err := c.GetProfilePosts(ctx, "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = c.GetProfilePosts(ctx, "second")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestWithHost(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "linkedin-data-api.p.rapidapi.com", r.Header.Get("x-rapidapi-host"))
		_, _ = w.Write([]byte(`{}`))
	}, WithHost("linkedin-data-api.p.rapidapi.com"))

	_, err := c.GetProfile(context.Background(), "u")
	require.NoError(t, err)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "linkedin-data-api.p.rapidapi.com", hostOf(defaultBaseURL))
	assert.Equal(t, "example.com", hostOf("example.com/api"))
}
