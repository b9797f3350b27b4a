package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingOrder(t *testing.T) {
	src := fstest.MapFS{
		"0002_audio.sql": {Data: []byte("SELECT 2")},
		"0001_init.sql":  {Data: []byte("SELECT 1")},
		"README.md":      {Data: []byte("notes")},
	}
	files, err := PendingOrder(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_audio.sql"}, files)
}

func TestMigrationSourceFallsBackToEmbedded(t *testing.T) {
	files, err := PendingOrder(MigrationSource(t.TempDir() + "/missing"))
	require.NoError(t, err)
	assert.Contains(t, files, "0001_init.sql")
}

func TestMigrationSourceUsesDirectory(t *testing.T) {
	files, err := PendingOrder(MigrationSource(t.TempDir()))
	require.NoError(t, err)
	assert.Empty(t, files)
}
