package migration

import (
	"testing"
	"testing/fstest"

	"founder-connect/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_SortsAndFilters(t *testing.T) {
	src := fstest.MapFS{
		"V2__posts.sql":    {Data: []byte("CREATE TABLE posts (id INT);")},
		"V1__init.sql":     {Data: []byte("CREATE TABLE users (id INT);")},
		"README.md":        {Data: []byte("ignored")},
		"v3__lower.sql":    {Data: []byte("ignored, lowercase prefix")},
		"nested/V9__x.sql": {Data: []byte("ignored, nested")},
	}

	migs, err := loadMigrations(src)
	require.NoError(t, err)
	require.Len(t, migs, 2)

	assert.Equal(t, int64(1), migs[0].Version)
	assert.Equal(t, "init", migs[0].Name)
	assert.Equal(t, int64(2), migs[1].Version)
	assert.NotEqual(t, migs[0].Checksum, migs[1].Checksum)
}

func TestLoadMigrations_RejectsDuplicatesAndEmpty(t *testing.T) {
	_, err := loadMigrations(fstest.MapFS{
		"V1__a.sql":  {Data: []byte("SELECT 1;")},
		"V01__b.sql": {Data: []byte("SELECT 2;")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version")

	_, err = loadMigrations(fstest.MapFS{"V1__empty.sql": {Data: []byte("   ")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty migration file")
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	migs, err := loadMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	assert.Equal(t, int64(1), migs[0].Version)
}
