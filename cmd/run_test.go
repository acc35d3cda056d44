package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
)

func TestFiltersFromFlags(t *testing.T) {
	runKeywords = []string{"golang, rust", " ", "platform engineer"}
	runLocationID = "103644278"
	runDatePosted = "pastWeek"
	runJobType = "fullTime"
	runOnsiteRemote = "remote"
	runSort = ""
	t.Cleanup(func() {
		runKeywords, runLocationID, runDatePosted, runJobType, runOnsiteRemote = nil, "", "", "", ""
	})

	f := filtersFromFlags()
	f.Normalize()
	require.NoError(t, f.Validate())

	assert.Equal(t, []string{"golang", "rust", "platform engineer"}, f.Keywords)
	assert.Equal(t, "103644278", f.LocationID)
	assert.Equal(t, model.DatePostedPastWeek, f.DatePosted)
	assert.Equal(t, model.JobTypeFullTime, f.JobType)
	assert.Equal(t, model.OnsiteRemoteRemote, f.OnsiteRemote)
	assert.Equal(t, model.SortMostRelevant, f.Sort)
}

func TestFiltersFromFlags_InvalidJobType(t *testing.T) {
	runKeywords = []string{"golang"}
	runJobType = "gig"
	t.Cleanup(func() { runKeywords, runJobType = nil, "" })

	f := filtersFromFlags()
	f.Normalize()
	assert.Error(t, f.Validate())
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	fn := printProgress(&buf)
	fn("Fetching jobs for golang")
	fn("Found 52 unique companies after 2 attempts")

	assert.Equal(t, "Fetching jobs for golang\nFound 52 unique companies after 2 attempts\n", buf.String())
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	err := writeSummary(&buf, &pipeline.Result{
		QueryID: "q-1",
		Records: []model.FinalRecord{{ProfileURL: "https://www.linkedin.com/in/jane"}},
		Counts:  model.RunCounts{FinalRecords: 1, Pushed: 1},
		Usage:   model.TokenUsage{Calls: 2, CostUSD: 0.12},
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "q-1", got["query_id"])
	assert.NotContains(t, got, "records")
	assert.EqualValues(t, 1, got["counts"].(map[string]any)["final_records"])
}
