package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/store"
)

func TestInitStore_SQLite(t *testing.T) {
	useTestConfig(t)

	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck
}

func TestInitStore_SQLiteDefaultPath(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(origDir) //nolint:errcheck

	useTestConfig(t).Store.SQLitePath = ""

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, statErr := os.Stat(filepath.Join(tmpDir, defaultSQLitePath))
	assert.NoError(t, statErr)
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	useTestConfig(t).Store.Driver = "mongo"

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestOpenStore_Migrates(t *testing.T) {
	st := newTestStore(t)

	for _, c := range store.Collections() {
		n, err := st.Count(context.Background(), c)
		require.NoError(t, err)
		assert.Zero(t, n, string(c))
	}
}

func TestInitSalesforce_RequiresClientID(t *testing.T) {
	useTestConfig(t)

	_, err := initSalesforce()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client ID is required")
}
