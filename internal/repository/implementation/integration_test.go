package implementation

import (
	"context"
	"errors"
	"os"
	"testing"

	"notehub-engine/internal/entity"
	"notehub-engine/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStores(t *testing.T) {
	_ = godotenv.Load("../../../.env")

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	ctx := context.Background()

	t.Run("document revisions", func(t *testing.T) {
		store := NewDocumentStore(db)
		path := entity.PathFor("it-" + uuid.NewString())
		t.Cleanup(func() { _ = store.Delete(ctx, path) })

		created, err := store.Create(ctx, path, entity.CreateSpec{Title: "IT", Content: "v1", Tags: []string{"it"}})
		require.NoError(t, err)
		assert.Equal(t, "1", created.Revision)
		assert.Empty(t, created.Content)

		updated, err := store.Update(ctx, path, "v2", entity.ContentKindMarkdown, created.Revision)
		require.NoError(t, err)
		assert.Equal(t, "2", updated.Revision)

		_, err = store.Update(ctx, path, "v3", entity.ContentKindMarkdown, created.Revision)
		var conflict *entity.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "2", conflict.CurrentRevision)

		body, err := store.GetContent(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "v2", body)

		fav := true
		meta, err := store.SetMetadata(ctx, path, entity.MetadataFields{IsFavorite: &fav})
		require.NoError(t, err)
		assert.True(t, meta.IsFavorite)
		assert.Equal(t, "2", meta.Revision)

		found, err := store.List(ctx, "/", entity.DocumentFilter{Tags: []string{"it"}, FavoritesOnly: true, Query: "IT"})
		require.NoError(t, err)
		assert.NotEmpty(t, found)
	})

	t.Run("resource dedup", func(t *testing.T) {
		store := NewResourceStore(db)
		content := []byte("integration " + uuid.NewString())

		first, err := store.Put(ctx, entity.ResourceInput{TypeId: "file", SourceId: "a", Content: content})
		require.NoError(t, err)
		second, err := store.Put(ctx, entity.ResourceInput{TypeId: "file", SourceId: "b", Content: content})
		require.NoError(t, err)

		assert.True(t, first.IsNew)
		assert.False(t, second.IsNew)
		assert.Equal(t, first.ResourceId, second.ResourceId)
	})
}

func TestRedisPreferenceStore(t *testing.T) {
	_ = godotenv.Load("../../../.env")

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewPreferenceStore(rdb)
	ctx := context.Background()
	key := "it-" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, preferenceKeyPrefix+key) })

	_, found, err := store.GetPref(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SetPref(ctx, key, `{"openTabs":[]}`))
	v, found, err := store.GetPref(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"openTabs":[]}`, v)
}
