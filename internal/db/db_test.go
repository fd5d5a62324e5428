package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMigrationsSortsAndSkips(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"002_add_index.sql":    "CREATE INDEX x ON predictions (created_at);",
		"001_predictions.sql":  "CREATE TABLE predictions (id SERIAL);",
		"notes.sql":            "-- no number",
		"abc_bad_number.sql":   "SELECT 1;",
		"003_readme.txt":       "not sql",
		"010_later_change.sql": "SELECT 1;",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}

	got, err := readMigrations(dir)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, "predictions", got[0].Name)
	assert.Equal(t, 2, got[1].Number)
	assert.Equal(t, "add_index", got[1].Name)
	assert.Equal(t, 10, got[2].Number)
	assert.Equal(t, "later_change", got[2].Name)
}

func TestReadMigrationsMissingDir(t *testing.T) {
	_, err := readMigrations(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestShippedMigrationsParse(t *testing.T) {
	got, err := readMigrations("../../migrations")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[0].Number)
	assert.Contains(t, got[0].SQL, "predictions")
}

func TestWithSSLDisabled(t *testing.T) {
	assert.Equal(t, "postgres://u@h/db?sslmode=disable", withSSLDisabled("postgres://u@h/db"))
	assert.Equal(t, "postgres://u@h/db?x=1&sslmode=disable", withSSLDisabled("postgres://u@h/db?x=1"))
	assert.Equal(t, "host=h dbname=db sslmode=disable", withSSLDisabled("host=h dbname=db"))
}

func TestNewRequiresConnectionString(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
}
