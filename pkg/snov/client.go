// Package snov is a client for the Snov.io email finder and prospect list
// API. Requests authenticate with a client-credentials token that is cached
// until shortly before it expires.
package snov

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.snov.io"
	tokenSkew      = time.Minute
)

// Client defines the Snov.io operations used by the pipeline.
type Client interface {
	AddURLForSearch(ctx context.Context, profileURL string) error
	GetEmailsFromURL(ctx context.Context, profileURL string) (*URLSearchResponse, error)
	StartNameDomainSearch(ctx context.Context, row NameDomainRow) (string, error)
	GetNameDomainResult(ctx context.Context, taskHash string) (*NameDomainResult, error)
	AddProspectToList(ctx context.Context, p ProspectRecord) (*AddProspectResponse, error)
}

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("snov: HTTP %d: %s", e.StatusCode, e.Body)
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
	clientID     string
	clientSecret string
	baseURL      string
	http         *http.Client
	limiter      *rate.Limiter
	now          func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewClient creates a new Snov.io client.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      defaultBaseURL,
		http:         &http.Client{Timeout: 60 * time.Second},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// accessToken returns the cached token, requesting a new one when missing or
// about to expire.
func (c *httpClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	var resp tokenResponse
	if err := c.send(ctx, http.MethodPost, "/v1/oauth/access_token", "", form, nil, &resp); err != nil {
		return "", eris.Wrap(err, "snov: access token")
	}
	if resp.AccessToken == "" {
		return "", eris.New("snov: access token: empty token in response")
	}

	ttl := time.Duration(resp.ExpiresIn)*time.Second - tokenSkew
	if ttl <= 0 {
		ttl = time.Duration(resp.ExpiresIn) * time.Second
	}
	c.token = resp.AccessToken
	c.expires = c.now().Add(ttl)
	return c.token, nil
}

func (c *httpClient) AddURLForSearch(ctx context.Context, profileURL string) error {
	var resp map[string]any
	if err := c.postForm(ctx, "/v1/add-url-for-search", url.Values{"url": {profileURL}}, &resp); err != nil {
		return eris.Wrap(err, fmt.Sprintf("snov: add url %s", profileURL))
	}
	return nil
}

func (c *httpClient) GetEmailsFromURL(ctx context.Context, profileURL string) (*URLSearchResponse, error) {
	var resp URLSearchResponse
	if err := c.postForm(ctx, "/v1/get-emails-from-url", url.Values{"url": {profileURL}}, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("snov: emails from url %s", profileURL))
	}
	return &resp, nil
}

func (c *httpClient) StartNameDomainSearch(ctx context.Context, row NameDomainRow) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(startNameDomainRequest{Rows: []NameDomainRow{row}})
	if err != nil {
		return "", eris.Wrap(err, "snov: marshal name search")
	}
	var resp startNameDomainResponse
	if err := c.send(ctx, http.MethodPost, "/v2/emails-by-domain-by-name/start", token, nil, body, &resp); err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("snov: start name search %s %s@%s", row.FirstName, row.LastName, row.Domain))
	}
	if resp.Data.TaskHash == "" {
		return "", eris.Errorf("snov: start name search %s %s@%s: no task hash returned", row.FirstName, row.LastName, row.Domain)
	}
	return resp.Data.TaskHash, nil
}

func (c *httpClient) GetNameDomainResult(ctx context.Context, taskHash string) (*NameDomainResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	var resp NameDomainResult
	path := "/v2/emails-by-domain-by-name/result?" + url.Values{"task_hash": {taskHash}}.Encode()
	if err := c.send(ctx, http.MethodGet, path, token, nil, nil, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("snov: name search result %s", taskHash))
	}
	return &resp, nil
}

func (c *httpClient) AddProspectToList(ctx context.Context, p ProspectRecord) (*AddProspectResponse, error) {
	form := url.Values{
		"email":                 {p.Email},
		"fullName":              {p.FullName},
		"firstName":             {p.FirstName},
		"lastName":              {p.LastName},
		"country":               {p.Country},
		"socialLinks[linkedIn]": {p.LinkedInURL},
		"position":              {p.Position},
		"companyName":           {p.CompanyName},
		"companySite":           {p.CompanySite},
		"updateContact":         {"1"},
		"listId":                {p.ListID},
	}
	for name, value := range p.CustomFields {
		form.Set("customFields["+name+"]", value)
	}
	var resp AddProspectResponse
	if err := c.postForm(ctx, "/v1/add-prospect-to-list", form, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("snov: add prospect %s", p.Email))
	}
	return &resp, nil
}

// postForm sends a v1 form request authenticated with access_token.
func (c *httpClient) postForm(ctx context.Context, path string, form url.Values, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	form.Set("access_token", token)
	return c.send(ctx, http.MethodPost, path, token, form, nil, out)
}

// send executes a request. A non-nil form is sent url-encoded, otherwise a
// non-nil body is sent as JSON.
func (c *httpClient) send(ctx context.Context, method, path, token string, form url.Values, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit")
		}
	}

	var reader io.Reader
	contentType := ""
	switch {
	case form != nil:
		reader = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case body != nil:
		reader = bytes.NewReader(body)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

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
