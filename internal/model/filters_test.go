package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitKeywords(t *testing.T) {
	t.Parallel()

	got := SplitKeywords("golang, rust,,  ", "python")
	assert.Equal(t, []string{"golang", "rust", "python"}, got)
	assert.Empty(t, SplitKeywords(" , ,"))
}

func TestFiltersNormalize(t *testing.T) {
	t.Parallel()

	f := Filters{Keywords: []string{"go, sre"}}
	f.Normalize()
	assert.Equal(t, []string{"go", "sre"}, f.Keywords)
	assert.Equal(t, DatePostedPastMonth, f.DatePosted)
	assert.Equal(t, SortMostRelevant, f.Sort)
}

func TestFiltersValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Filters{Keywords: []string{"go"}, JobType: JobTypeContract}.Validate())

	err := Filters{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyword")

	err = Filters{Keywords: []string{"go"}, DatePosted: "yesterday"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_posted")

	err = Filters{Keywords: []string{"go"}, OnsiteRemote: "mars"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "onsite_remote")

	err = Filters{Keywords: []string{"go"}, Sort: "random"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sort")
}
