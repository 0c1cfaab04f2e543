package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"notehub-engine/internal/entity"
	"notehub-engine/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureLoaded_ConcurrentCallersFetchOnce(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Title: "One", Content: "body"})

	gate := make(chan struct{})
	e.store.mu.Lock()
	e.store.contentGate = gate
	e.store.mu.Unlock()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*LoadedDocument, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.cache.EnsureLoaded(context.Background(), "n1")
		}(i)
	}
	close(gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "body", results[i].Document().Content)
	}
	assert.Equal(t, 1, e.store.ContentCalls())

	_, err := e.cache.EnsureLoaded(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, 1, e.store.ContentCalls(), "loaded documents are served from cache")
}

func TestEnsureLoaded_CancelledCallerDoesNotFailJoiners(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Title: "One", Content: "body"})

	gate := make(chan struct{})
	e.store.mu.Lock()
	e.store.contentGate = gate
	e.store.mu.Unlock()

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := e.cache.EnsureLoaded(leaderCtx, "n1")
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return e.store.ContentCalls() == 1 }, time.Second, time.Millisecond)

	joined := make(chan *LoadedDocument, 1)
	joinErr := make(chan error, 1)
	go func() {
		doc, err := e.cache.EnsureLoaded(context.Background(), "n1")
		joined <- doc
		joinErr <- err
	}()

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(gate)
	doc := <-joined
	require.NoError(t, <-joinErr)
	assert.Equal(t, "body", doc.Document().Content)
	assert.Equal(t, 1, e.store.ContentCalls())
	assert.Equal(t, entity.DocStateLoaded, e.cache.State("n1"))
}

func TestEnsureLoaded_NotFound(t *testing.T) {
	e := newEngine(t)

	_, err := e.cache.EnsureLoaded(context.Background(), "ghost")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.False(t, e.cache.IsLoaded("ghost"))
}

func TestForceReload_AlwaysFetches(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Title: "One", Content: "v1"})
	ctx := context.Background()

	_, err := e.cache.EnsureLoaded(ctx, "n1")
	require.NoError(t, err)

	e.store.Seed(&entity.Document{Id: "n1", Title: "One", Content: "v2"})
	doc, err := e.cache.ForceReload(ctx, "n1")
	require.NoError(t, err)

	assert.Equal(t, "v2", doc.Document().Content)
	assert.Equal(t, 2, e.store.ContentCalls())
	assert.Equal(t, 1, e.publisher.Count(events.ContentChanged))
}

func TestSave_BeforeLoadFailsAndLoadsInBackground(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Title: "One", Content: "old"})
	ctx := context.Background()

	_, err := e.cache.Save(ctx, "n1", "hello", nil)
	require.ErrorIs(t, err, entity.ErrContentNotLoaded)

	e.cache.Wait()
	assert.True(t, e.cache.IsLoaded("n1"))

	body, err := e.store.DocumentStore.GetContent(ctx, "/n1")
	require.NoError(t, err)
	assert.Equal(t, "old", body, "a rejected save writes nothing")
}

func TestSave_RetryAfterLoadSucceeds(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Title: "One", Content: "old"})
	ctx := context.Background()

	_, err := e.cache.Save(ctx, "n1", "hello", nil)
	require.ErrorIs(t, err, entity.ErrContentNotLoaded)

	loaded, err := e.cache.EnsureLoaded(ctx, "n1")
	require.NoError(t, err)

	res, err := loaded.Save(ctx, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Document.Content)
	assert.Equal(t, "2", res.Document.Revision)

	cached, ok := e.cache.Peek("n1")
	require.True(t, ok)
	assert.Equal(t, "hello", cached.Content)
	assert.Equal(t, entity.DocStateLoaded, e.cache.State("n1"))
	assert.Equal(t, 1, e.publisher.Count(events.ContentChanged))
}

func TestSave_UnknownDocument(t *testing.T) {
	e := newEngine(t)
	_, err := e.cache.Save(context.Background(), "nope", "x", nil)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestSave_RewritesPreviewURLs(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{
		Id:      "n1",
		Content: "",
		Assets:  []entity.Asset{{RelativePath: "./assets/a.png", PreviewURL: "blob:app/123"}},
	})
	ctx := context.Background()
	_, err := e.cache.EnsureLoaded(ctx, "n1")
	require.NoError(t, err)

	res, err := e.cache.Save(ctx, "n1", "![a](blob:app/123)", nil)
	require.NoError(t, err)
	assert.Equal(t, "![a](./assets/a.png)", res.Document.Content)

	body, err := e.store.DocumentStore.GetContent(ctx, "/n1")
	require.NoError(t, err)
	assert.Equal(t, "![a](./assets/a.png)", body)
}

func TestSave_ConflictReloadsRemoteContent(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Title: "One", Content: "base"})
	ctx := context.Background()

	_, err := e.cache.EnsureLoaded(ctx, "n1")
	require.NoError(t, err)

	e.store.Seed(&entity.Document{Id: "n1", Title: "One", Content: "theirs"})

	_, err = e.cache.Save(ctx, "n1", "mine", nil)
	require.ErrorIs(t, err, entity.ErrSaveConflict)
	assert.ErrorIs(t, err, entity.ErrRevisionConflict)

	var conflict *entity.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "1", conflict.ExpectedRevision)
	assert.Equal(t, "2", conflict.CurrentRevision)

	e.cache.Wait()
	doc, ok := e.cache.Peek("n1")
	require.True(t, ok)
	assert.Equal(t, "theirs", doc.Content)
	assert.Equal(t, entity.DocStateLoaded, e.cache.State("n1"))
	assert.Equal(t, 1, e.publisher.Count(events.SaveConflict))
}

func TestSave_StoreFailureClearsLoadedFlag(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Content: "base"})
	ctx := context.Background()

	_, err := e.cache.EnsureLoaded(ctx, "n1")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	e.store.mu.Lock()
	e.store.updateErr = boom
	e.store.mu.Unlock()

	_, err = e.cache.Save(ctx, "n1", "mine", nil)
	assert.ErrorIs(t, err, entity.ErrSaveFailed)
	assert.ErrorIs(t, err, boom)
	assert.False(t, e.cache.IsLoaded("n1"))
}

func TestSave_TitleFailureIsAWarning(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Title: "Old", Content: "base"})
	ctx := context.Background()

	_, err := e.cache.EnsureLoaded(ctx, "n1")
	require.NoError(t, err)

	e.store.mu.Lock()
	e.store.metadataErr = errors.New("metadata endpoint down")
	e.store.mu.Unlock()

	title := "New"
	res, err := e.cache.Save(ctx, "n1", "updated", &title)
	require.NoError(t, err)
	assert.Error(t, res.TitleWarning)
	assert.Equal(t, "updated", res.Document.Content)
	assert.Equal(t, "Old", res.Document.Title)
	assert.Equal(t, 1, e.publisher.Count(events.Warning))
}

func TestSave_WithTitle(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Title: "Old", Content: "base"})
	ctx := context.Background()

	_, err := e.cache.EnsureLoaded(ctx, "n1")
	require.NoError(t, err)

	title := "New"
	res, err := e.cache.Save(ctx, "n1", "updated", &title)
	require.NoError(t, err)
	assert.NoError(t, res.TitleWarning)
	assert.Equal(t, "New", res.Document.Title)

	remote, err := e.store.Get(ctx, "/n1")
	require.NoError(t, err)
	assert.Equal(t, "New", remote.Title)
}

func TestSave_MaintenanceMode(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Content: "base"})
	ctx := context.Background()
	_, err := e.cache.EnsureLoaded(ctx, "n1")
	require.NoError(t, err)

	e.cache.SetMaintenanceMode(true)
	_, err = e.cache.Save(ctx, "n1", "x", nil)
	assert.ErrorIs(t, err, entity.ErrMaintenanceMode)

	e.cache.SetMaintenanceMode(false)
	_, err = e.cache.Save(ctx, "n1", "x", nil)
	assert.NoError(t, err)
}

func TestRefresh_DropsStaleContentAndDeletedDocuments(t *testing.T) {
	e := newEngine(t)
	e.seed(t,
		&entity.Document{Id: "keep", Content: "k"},
		&entity.Document{Id: "stale", Content: "s1"},
		&entity.Document{Id: "gone", Content: "g"},
	)
	ctx := context.Background()
	for _, id := range []string{"keep", "stale", "gone"} {
		_, err := e.cache.EnsureLoaded(ctx, id)
		require.NoError(t, err)
	}

	e.store.Seed(&entity.Document{Id: "stale", Content: "s2"})
	require.NoError(t, e.store.Delete(ctx, "/gone"))
	require.NoError(t, e.cache.Refresh(ctx))

	assert.True(t, e.cache.IsLoaded("keep"))
	assert.False(t, e.cache.IsLoaded("stale"))
	_, ok := e.cache.Peek("gone")
	assert.False(t, ok)
	assert.Len(t, e.cache.List(), 2)
}

func TestMerge_KeepsLoadedContent(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Title: "A", Content: "body"})
	ctx := context.Background()
	_, err := e.cache.EnsureLoaded(ctx, "n1")
	require.NoError(t, err)

	e.cache.Merge(&entity.Document{Id: "n1", Title: "B", Tags: []string{"x"}, Revision: "9"})

	doc, ok := e.cache.Peek("n1")
	require.True(t, ok)
	assert.Equal(t, "B", doc.Title)
	assert.Equal(t, "body", doc.Content)
	assert.Equal(t, "1", doc.Revision)
	assert.Equal(t, []string{"x"}, doc.Tags)
}

func TestActiveMirror(t *testing.T) {
	e := newEngine(t)
	e.seed(t, &entity.Document{Id: "n1", Title: "A"})

	assert.Nil(t, e.cache.Active())
	e.cache.SetActive("n1")
	require.NotNil(t, e.cache.Active())
	assert.Equal(t, "A", e.cache.Active().Title)

	e.cache.Remove("n1")
	assert.Nil(t, e.cache.Active())
}
