package salesforce

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockClient answers collection calls with success unless a func is set.
type mockClient struct {
	queryFn            func(ctx context.Context, soql string, out any) error
	insertCollectionFn func(ctx context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error)
	updateCollectionFn func(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error)
}

var _ Client = (*mockClient)(nil)

func (m *mockClient) Query(ctx context.Context, soql string, out any) error {
	if m.queryFn == nil {
		return nil
	}
	return m.queryFn(ctx, soql, out)
}

func (m *mockClient) InsertCollection(ctx context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error) {
	if m.insertCollectionFn != nil {
		return m.insertCollectionFn(ctx, sObjectName, records)
	}
	out := make([]CollectionResult, len(records))
	for i := range out {
		out[i] = CollectionResult{Success: true}
	}
	return out, nil
}

func (m *mockClient) UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error) {
	if m.updateCollectionFn != nil {
		return m.updateCollectionFn(ctx, sObjectName, records)
	}
	out := make([]CollectionResult, len(records))
	for i, r := range records {
		out[i] = CollectionResult{ID: r.ID, Success: true}
	}
	return out, nil
}

func TestWithRateLimit(t *testing.T) {
	tests := []struct {
		name      string
		opts      []ClientOption
		wantLimit rate.Limit
		wantBurst int
	}{
		{name: "no option", opts: nil},
		{name: "whole rate", opts: []ClientOption{WithRateLimit(5)}, wantLimit: 5, wantBurst: 5},
		{name: "fractional rate", opts: []ClientOption{WithRateLimit(0.5)}, wantLimit: 0.5, wantBurst: 1},
		{name: "zero disables", opts: []ClientOption{WithRateLimit(0)}},
		{name: "later option wins", opts: []ClientOption{WithRateLimit(5), WithRateLimit(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(nil, tt.opts...).(*sfClient)
			if tt.wantBurst == 0 {
				assert.Nil(t, c.limiter)
				return
			}
			require.NotNil(t, c.limiter)
			assert.Equal(t, tt.wantLimit, c.limiter.Limit())
			assert.Equal(t, tt.wantBurst, c.limiter.Burst())
		})
	}
}

func TestClient_CanceledContextSkipsCall(t *testing.T) {
	c := &sfClient{limiter: rate.NewLimiter(rate.Every(time.Hour), 0)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// api is nil, so reaching the library would panic.
	err := c.Query(ctx, "SELECT Id FROM Lead", &[]Lead{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: rate limit")

	_, err = c.InsertCollection(ctx, "Lead", []map[string]any{{"LastName": "Doe"}})
	assert.Error(t, err)

	_, err = c.UpdateCollection(ctx, "Lead", []CollectionRecord{{ID: "00Q1"}})
	assert.Error(t, err)

	unthrottled := &sfClient{}
	assert.ErrorIs(t, unthrottled.Query(ctx, "SELECT Id FROM Lead", &[]Lead{}), context.Canceled)
}
