package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"Embeds/internal/core/embeds"
)

type noopProvider struct{}

func (noopProvider) Fetch(context.Context, string) (*embeds.Metadata, error) {
	return nil, embeds.ErrEmptyMarkup
}

// openDB opens a file database. goose holds one connection while the
// migration runs on another, so :memory: with a single connection would block.
func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "embeds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newRepository(t *testing.T, db *sql.DB, table string) *embeds.EmbedRepository {
	t.Helper()
	repo, err := embeds.NewRepository(embeds.RepositoryConfig{
		DB:       db,
		Provider: noopProvider{},
		Driver:   "sqlite",
		Table:    table,
	})
	require.NoError(t, err)
	return repo
}

func TestUp_CreatesCacheTable(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	repo := newRepository(t, db, "")

	version, err := Up(ctx, db, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	exists, err := repo.TableExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	// second run is a no-op
	version, err = Up(ctx, db, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestUp_TablesVersionedSeparately(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	first := newRepository(t, db, "embed_cache")
	second := newRepository(t, db, "video_embeds")

	_, err := Up(ctx, db, first)
	require.NoError(t, err)
	_, err = Up(ctx, db, second)
	require.NoError(t, err)

	exists, err := second.TableExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestVersionTable(t *testing.T) {
	assert.Equal(t, "goose_embed_cache_version", versionTable("embed_cache"))

	t.Run("long names fit the identifier limit", func(t *testing.T) {
		longest := strings.Repeat("a", 64)
		sibling := strings.Repeat("a", 63) + "b"

		name := versionTable(longest)
		assert.LessOrEqual(t, len(name), maxIdentifierLength)
		assert.True(t, strings.HasPrefix(name, "goose_aaaa"))
		assert.True(t, strings.HasSuffix(name, "_version"))
		assert.Equal(t, name, versionTable(longest), "stable across calls")
		assert.NotEqual(t, name, versionTable(sibling))
	})

	t.Run("boundary", func(t *testing.T) {
		table := strings.Repeat("t", maxIdentifierLength-len("goose__version"))
		assert.Equal(t, "goose_"+table+"_version", versionTable(table))
		assert.Len(t, versionTable(table+"t"), maxIdentifierLength)
	})
}

func TestUp_LongTableName(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	repo := newRepository(t, db, strings.Repeat("c", 64))

	version, err := Up(ctx, db, repo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}
