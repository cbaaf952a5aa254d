package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bunchhieng/sticky/internal/config"
	"github.com/bunchhieng/sticky/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath:   filepath.Join(t.TempDir(), "links.db"),
		LogLevel: "error",
		LogFile:  filepath.Join(t.TempDir(), "sticky.log"),
		Schemes:  []string{"https"},
	}
}

func TestNewAndSelectCategory(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	_, err = a.Store.CreateCategory(ctx, "Work")
	require.NoError(t, err)

	require.NoError(t, a.SelectCategory(ctx, "Work"))
	assert.Equal(t, "Work", a.Manager.Category().Name)

	_, err = a.Manager.Add(ctx, "Docs", "https://go.dev/doc")
	require.NoError(t, err)

	// Only https is registered.
	_, err = a.Manager.Add(ctx, "Old", "http://go.dev")
	assert.ErrorIs(t, err, model.ErrInvalidLink)

	assert.ErrorIs(t, a.SelectCategory(ctx, "Missing"), model.ErrNotFound)

	require.NoError(t, a.SelectCategory(ctx, ""))
	assert.Nil(t, a.Manager.Category())
	assert.Zero(t, a.Manager.Len())
}

func TestNewStorageFailureFlushesLog(t *testing.T) {
	cfg := testConfig(t)
	// A regular file where the database directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	cfg.DBPath = filepath.Join(blocker, "links.db")

	a, err := New(cfg)
	require.Error(t, err)
	assert.Nil(t, a)

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "initialize storage")
	assert.Contains(t, string(data), blocker)
}
