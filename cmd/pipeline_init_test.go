package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/pkg/snov"
)

func sinkNames(t *testing.T, env *pipelineEnv) []string {
	t.Helper()
	var names []string
	for _, s := range env.Sinks {
		names = append(names, s.Name())
	}
	return names
}

func TestPipelineEnv_Close_Nil(t *testing.T) {
	pe := &pipelineEnv{}
	assert.NotPanics(t, func() {
		pe.Close()
	})
}

func TestInitPipeline_SQLite(t *testing.T) {
	useTestConfig(t).Snov.ListID = "list-1"

	env, err := initPipeline(context.Background(), envOptions{mode: "run"})
	require.NoError(t, err)
	defer env.Close()

	require.NotNil(t, env.Pipeline)
	require.NotNil(t, env.Store)
	assert.Equal(t, []string{"snov"}, sinkNames(t, env))
}

func TestInitPipeline_DryRunSkipsOutreach(t *testing.T) {
	useTestConfig(t).Snov.ListID = "list-1"

	env, err := initPipeline(context.Background(), envOptions{mode: "run", dryRun: true})
	require.NoError(t, err)
	defer env.Close()

	assert.Empty(t, env.Sinks)
}

func TestInitPipeline_FailsValidation(t *testing.T) {
	useTestConfig(t).RapidAPI.Key = ""

	_, err := initPipeline(context.Background(), envOptions{mode: "run"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rapidapi.key is required")
}

func TestInitPipeline_FailsOnBadDriver(t *testing.T) {
	useTestConfig(t).Store.Driver = "mongo"

	_, err := initPipeline(context.Background(), envOptions{mode: "run"})
	require.Error(t, err)
}

func TestBuildSinks(t *testing.T) {
	finder := snov.NewClient("id", "secret")

	t.Run("no list id", func(t *testing.T) {
		useTestConfig(t)
		sinks, err := buildSinks(finder, false)
		require.NoError(t, err)
		assert.Empty(t, sinks)
	})

	t.Run("notion enabled", func(t *testing.T) {
		c := useTestConfig(t)
		c.Snov.ListID = "list-1"
		c.Notion.Enabled = true
		c.Notion.Token = "secret"
		c.Notion.FinalDB = "db-1"

		sinks, err := buildSinks(finder, false)
		require.NoError(t, err)
		require.Len(t, sinks, 2)
		assert.Equal(t, "snov", sinks[0].Name())
		assert.Equal(t, "notion", sinks[1].Name())
	})

	t.Run("salesforce without credentials", func(t *testing.T) {
		useTestConfig(t).Salesforce.Enabled = true
		_, err := buildSinks(finder, true)
		require.Error(t, err)
	})
}
