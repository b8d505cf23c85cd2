package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/speechgateway/migrations"
)

func TestPendingMigrationsOrdersFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_index.sql":  {Data: []byte("SELECT 2;")},
		"0001_tables.sql": {Data: []byte("SELECT 1;")},
		"README.md":       {Data: []byte("ignored")},
	}

	files, err := PendingMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_tables.sql", "0002_index.sql"}, files)
}

func TestEmbeddedMigrationsIncludeUsageTable(t *testing.T) {
	files, err := PendingMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_speech_usage.sql", files[0])
}
