// Package salesforce pushes outreach contacts into Salesforce as Lead
// records.
package salesforce

import (
	"context"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client is the subset of the Salesforce REST API the lead export needs.
type Client interface {
	Query(ctx context.Context, soql string, out any) error
	InsertCollection(ctx context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error)
	UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error)
}

// CollectionRecord is one record of a collection update.
type CollectionRecord struct {
	ID     string         `json:"Id"`
	Fields map[string]any `json:"fields"`
}

// CollectionResult is the per-record outcome of a collection call.
type CollectionResult struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// Credentials hold the username-password OAuth flow parameters.
type Credentials struct {
	LoginURL      string
	Username      string
	Password      string
	SecurityToken string
	ClientID      string
	ClientSecret  string
}

// ClientOption configures a Client built by Login or NewClient.
type ClientOption func(*sfClient)

// WithRateLimit throttles API calls to rps per second. Zero or less
// disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *sfClient) {
		c.limiter = nil
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// sfClient adapts *salesforce.Salesforce. The library takes no context, so
// ctx only bounds the wait for a rate limit slot.
type sfClient struct {
	api     *salesforce.Salesforce
	limiter *rate.Limiter
}

// Login authenticates with the username-password flow.
func Login(creds Credentials, opts ...ClientOption) (Client, error) {
	api, err := salesforce.Init(salesforce.Creds{
		Domain:         creds.LoginURL,
		Username:       creds.Username,
		Password:       creds.Password,
		SecurityToken:  creds.SecurityToken,
		ConsumerKey:    creds.ClientID,
		ConsumerSecret: creds.ClientSecret,
	})
	if err != nil {
		return nil, eris.Wrap(err, "sf: login")
	}
	return NewClient(api, opts...), nil
}

// NewClient wraps an authenticated go-salesforce instance.
func NewClient(api *salesforce.Salesforce, opts ...ClientOption) Client {
	c := &sfClient{api: api}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *sfClient) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return ctx.Err()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "sf: rate limit")
	}
	return nil
}

func (c *sfClient) Query(ctx context.Context, soql string, out any) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}
	if err := c.api.Query(soql, out); err != nil {
		return eris.Wrap(err, "sf: query")
	}
	return nil
}

func (c *sfClient) InsertCollection(ctx context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	res, err := c.api.InsertCollection(sObjectName, records, maxBatchSize)
	if err != nil {
		return nil, eris.Wrapf(err, "sf: insert collection %s", sObjectName)
	}
	return collectionResults(res), nil
}

func (c *sfClient) UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		row := make(map[string]any, len(rec.Fields)+1)
		for k, v := range rec.Fields {
			row[k] = v
		}
		row["Id"] = rec.ID
		rows = append(rows, row)
	}
	res, err := c.api.UpdateCollection(sObjectName, rows, maxBatchSize)
	if err != nil {
		return nil, eris.Wrapf(err, "sf: update collection %s", sObjectName)
	}
	return collectionResults(res), nil
}

func collectionResults(res salesforce.SalesforceResults) []CollectionResult {
	out := make([]CollectionResult, 0, len(res.Results))
	for _, r := range res.Results {
		cr := CollectionResult{ID: r.Id, Success: r.Success}
		for _, e := range r.Errors {
			cr.Errors = append(cr.Errors, e.Message)
		}
		out = append(out, cr)
	}
	return out
}
