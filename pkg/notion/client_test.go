package notion

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// MockClient is a testify mock of Client.
type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

func result[T any](args mock.Arguments) (T, error) {
	v, _ := args.Get(0).(T)
	return v, args.Error(1)
}

func (m *MockClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return result[*notionapi.DatabaseQueryResponse](m.Called(ctx, dbID, req))
}

func (m *MockClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return result[*notionapi.Page](m.Called(ctx, req))
}

func (m *MockClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return result[*notionapi.Page](m.Called(ctx, pageID, req))
}

func TestNewClient_RateLimit(t *testing.T) {
	tests := []struct {
		name      string
		opts      []ClientOption
		wantLimit rate.Limit
		wantBurst int
	}{
		{name: "default", wantLimit: defaultRPS, wantBurst: 1},
		{name: "override", opts: []ClientOption{WithRateLimit(10)}, wantLimit: 10, wantBurst: 10},
		{name: "fractional", opts: []ClientOption{WithRateLimit(0.5)}, wantLimit: 0.5, wantBurst: 1},
		{name: "disabled", opts: []ClientOption{WithRateLimit(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient("secret", tt.opts...).(*notionClient)
			require.NotNil(t, c.api)
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
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// api is nil, so reaching the library would panic.
	throttled := &notionClient{limiter: rate.NewLimiter(rate.Every(time.Hour), 0)}
	_, err := throttled.QueryDatabase(ctx, "db-1", &notionapi.DatabaseQueryRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: query database db-1: rate limit")

	_, err = throttled.CreatePage(ctx, &notionapi.PageCreateRequest{})
	assert.Error(t, err)

	unthrottled := &notionClient{}
	_, err = unthrottled.UpdatePage(ctx, "page-1", &notionapi.PageUpdateRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindPage(t *testing.T) {
	ctx := context.Background()

	t.Run("filters on key and takes one page", func(t *testing.T) {
		mc := new(MockClient)
		mc.On("QueryDatabase", ctx, "db-1", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
			pf, ok := req.Filter.(notionapi.PropertyFilter)
			return ok && req.PageSize == 1 &&
				pf.Property == "Profile URL" &&
				pf.RichText != nil && pf.RichText.Equals == "https://www.linkedin.com/in/jane"
		})).Return(&notionapi.DatabaseQueryResponse{Results: []notionapi.Page{{ID: "p1"}, {ID: "p2"}}}, nil)

		id, err := findPage(ctx, mc, "db-1", "Profile URL", "https://www.linkedin.com/in/jane")
		require.NoError(t, err)
		assert.Equal(t, "p1", id)
		mc.AssertExpectations(t)
	})

	t.Run("no match", func(t *testing.T) {
		mc := new(MockClient)
		mc.On("QueryDatabase", ctx, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{}, nil)

		id, err := findPage(ctx, mc, "db-1", "Profile URL", "https://www.linkedin.com/in/nobody")
		require.NoError(t, err)
		assert.Empty(t, id)
	})

	t.Run("query error", func(t *testing.T) {
		mc := new(MockClient)
		mc.On("QueryDatabase", ctx, "db-1", mock.Anything).Return(nil, assert.AnError)

		_, err := findPage(ctx, mc, "db-1", "Profile URL", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `notion: find Profile URL = "x"`)
	})
}
