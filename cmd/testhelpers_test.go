package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// useTestConfig installs a config that passes Validate for every mode and
// points the store at a fresh SQLite file.
func useTestConfig(t *testing.T) *config.Config {
	t.Helper()
	prev := cfg
	t.Cleanup(func() { cfg = prev })

	cfg = &config.Config{
		Store:     config.StoreConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "leadgen.db")},
		RapidAPI:  config.RapidAPIConfig{Key: "rapid-key", BaseURL: "http://127.0.0.1:1"},
		Snov:      config.SnovConfig{ClientID: "snov-id", ClientSecret: "snov-secret", BaseURL: "http://127.0.0.1:1"},
		Anthropic: config.AnthropicConfig{Key: "sk-test", Model: "claude-test", MaxTokens: 1000},
		Pipeline: config.PipelineConfig{
			MinCompanies:    50,
			MaxAttempts:     3,
			ICPMaxEmployees: 200,
			PeopleTargetMin: 5,
			PeopleTargetMax: 10,
			Retry:           config.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 2},
		},
		Server: config.ServerConfig{Port: 8080},
		Log:    config.LogConfig{Level: "error", Format: "json"},
	}
	return cfg
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	useTestConfig(t)
	st, err := openStore(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}
