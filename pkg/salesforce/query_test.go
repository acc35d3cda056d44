package salesforce

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLeadIDsByEmail(t *testing.T) {
	t.Run("maps lowercased email to id", func(t *testing.T) {
		mock := &mockClient{
			queryFn: func(_ context.Context, soql string, out any) error {
				assert.Contains(t, soql, "FROM Lead WHERE Email IN ('Jane@acme.com', 'bob@acme.com')")
				leads := out.(*[]Lead)
				*leads = []Lead{{ID: "00Q1", Email: "Jane@Acme.com"}}
				return nil
			},
		}

		ids, err := FindLeadIDsByEmail(context.Background(), mock, []string{"Jane@acme.com", "bob@acme.com"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"jane@acme.com": "00Q1"}, ids)
	})

	t.Run("first match wins", func(t *testing.T) {
		mock := &mockClient{
			queryFn: func(_ context.Context, _ string, out any) error {
				leads := out.(*[]Lead)
				*leads = []Lead{{ID: "00Q1", Email: "a@x.com"}, {ID: "00Q2", Email: "A@x.com"}}
				return nil
			},
		}

		ids, err := FindLeadIDsByEmail(context.Background(), mock, []string{"a@x.com"})
		require.NoError(t, err)
		assert.Equal(t, "00Q1", ids["a@x.com"])
	})

	t.Run("batches of 200", func(t *testing.T) {
		calls := 0
		mock := &mockClient{
			queryFn: func(_ context.Context, soql string, _ any) error {
				calls++
				n := strings.Count(soql, "@x.com")
				if calls == 1 {
					assert.Equal(t, maxBatchSize, n)
				} else {
					assert.Equal(t, 50, n)
				}
				return nil
			},
		}
		emails := make([]string, 250)
		for i := range emails {
			emails[i] = fmt.Sprintf("u%d@x.com", i)
		}

		_, err := FindLeadIDsByEmail(context.Background(), mock, emails)
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("no emails makes no query", func(t *testing.T) {
		mock := &mockClient{
			queryFn: func(context.Context, string, any) error {
				t.Fatal("unexpected query")
				return nil
			},
		}
		ids, err := FindLeadIDsByEmail(context.Background(), mock, nil)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("query error", func(t *testing.T) {
		mock := &mockClient{
			queryFn: func(context.Context, string, any) error { return assert.AnError },
		}
		_, err := FindLeadIDsByEmail(context.Background(), mock, []string{"a@x.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sf: find leads by email")
	})
}

func TestEscapeSoql(t *testing.T) {
	assert.Equal(t, `o\'brien@x.com`, escapeSoql("o'brien@x.com"))
	assert.Equal(t, `a\\b`, escapeSoql(`a\b`))
}
