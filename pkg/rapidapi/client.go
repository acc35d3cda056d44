// Package rapidapi is a client for the LinkedIn data API hosted on RapidAPI:
// job search, hiring teams, people search, profiles, posts and companies.
package rapidapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://linkedin-data-api.p.rapidapi.com"

// Client defines the LinkedIn data operations used by the pipeline. Payloads
// are returned as decoded JSON objects; their shape varies by endpoint and is
// interpreted by the caller.
type Client interface {
	SearchJobs(ctx context.Context, params JobSearchParams) ([]map[string]any, error)
	GetHiringTeam(ctx context.Context, jobID, jobURL string) ([]map[string]any, error)
	SearchPeople(ctx context.Context, keywords, company string) ([]map[string]any, error)
	GetProfile(ctx context.Context, profileURL string) (map[string]any, error)
	GetProfilePosts(ctx context.Context, username string) ([]map[string]any, error)
	GetCompanyByID(ctx context.Context, id string) (map[string]any, error)
	GetCompanyByUsername(ctx context.Context, username string) (map[string]any, error)
}

// JobSearchParams are the query parameters of /search-jobs. Empty fields are
// omitted from the request.
type JobSearchParams struct {
	Keywords     string
	LocationID   string
	DatePosted   string
	JobType      string
	FunctionID   string
	IndustryID   string
	OnsiteRemote string
	Sort         string
}

func (p JobSearchParams) values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("keywords", p.Keywords)
	set("locationId", p.LocationID)
	set("datePosted", p.DatePosted)
	set("jobType", p.JobType)
	set("functionIds", p.FunctionID)
	set("industryIds", p.IndustryID)
	set("onsiteRemote", p.OnsiteRemote)
	set("sort", p.Sort)
	v.Set("start", "0")
	return v
}

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rapidapi: HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus exposes the status code to retry classifiers.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHost overrides the x-rapidapi-host header, which defaults to the base
// URL's host.
func WithHost(host string) Option {
	return func(c *httpClient) {
		c.host = host
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles requests to rps per second. Zero disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	host    string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new RapidAPI LinkedIn client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.host == "" {
		c.host = hostOf(c.baseURL)
	}
	return c
}

func hostOf(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return strings.Split(strings.TrimPrefix(strings.TrimPrefix(base, "https://"), "http://"), "/")[0]
	}
	return u.Host
}

func (c *httpClient) SearchJobs(ctx context.Context, params JobSearchParams) ([]map[string]any, error) {
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := c.get(ctx, "/search-jobs", params.values(), &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("rapidapi: search jobs %q", params.Keywords))
	}
	return resp.Data, nil
}

type itemsResponse struct {
	Data struct {
		Items []map[string]any `json:"items"`
	} `json:"data"`
}

func (c *httpClient) GetHiringTeam(ctx context.Context, jobID, jobURL string) ([]map[string]any, error) {
	var resp itemsResponse
	if err := c.get(ctx, "/get-hiring-team", url.Values{"id": {jobID}, "url": {jobURL}}, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("rapidapi: hiring team %s", jobID))
	}
	return resp.Data.Items, nil
}

func (c *httpClient) SearchPeople(ctx context.Context, keywords, company string) ([]map[string]any, error) {
	var resp itemsResponse
	q := url.Values{"keywords": {keywords}, "start": {"0"}, "company": {company}}
	if err := c.get(ctx, "/search-people", q, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("rapidapi: search people %q at %q", keywords, company))
	}
	return resp.Data.Items, nil
}

func (c *httpClient) GetProfile(ctx context.Context, profileURL string) (map[string]any, error) {
	var resp map[string]any
	if err := c.get(ctx, "/get-profile-data-by-url", url.Values{"url": {profileURL}}, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("rapidapi: profile %s", profileURL))
	}
	return resp, nil
}

func (c *httpClient) GetProfilePosts(ctx context.Context, username string) ([]map[string]any, error) {
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := c.get(ctx, "/get-profile-posts", url.Values{"username": {username}}, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("rapidapi: posts %s", username))
	}
	return resp.Data, nil
}

type objectResponse struct {
	Data map[string]any `json:"data"`
}

func (c *httpClient) GetCompanyByID(ctx context.Context, id string) (map[string]any, error) {
	var resp objectResponse
	if err := c.get(ctx, "/get-company-details-by-id", url.Values{"id": {id}}, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("rapidapi: company %s", id))
	}
	return resp.Data, nil
}

func (c *httpClient) GetCompanyByUsername(ctx context.Context, username string) (map[string]any, error) {
	var resp objectResponse
	if err := c.get(ctx, "/get-company-details", url.Values{"username": {username}}, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("rapidapi: company %s", username))
	}
	return resp.Data, nil
}

func (c *httpClient) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit")
		}
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
