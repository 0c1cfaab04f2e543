package service

import (
	"context"
	"testing"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchFixture(t *testing.T) (*fakeStore, *recordingPublisher, ISearchService) {
	t.Helper()
	store := newFakeStore()
	store.Seed(&entity.Document{Id: "n1", Title: "Alpha notes", Tags: []string{"math"}, IsFavorite: true})
	store.Seed(&entity.Document{Id: "n2", Title: "Beta notes", Tags: []string{"math", "exam"}})
	store.Seed(&entity.Document{Id: "n3", Title: "Gamma", Content: "alpha inside"})
	pub := &recordingPublisher{}
	return store, pub, NewSearchService(store, pub, logger.NewNopLogger())
}

func ids(docs []*entity.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Id)
	}
	return out
}

func TestSearch_Filters(t *testing.T) {
	tests := []struct {
		name  string
		query string
		tags  []string
		want  []string
	}{
		{name: "text matches title and content", query: "alpha", want: []string{"n1", "n3"}},
		{name: "inline tag", query: "#exam", want: []string{"n2"}},
		{name: "explicit tags and text", query: "notes", tags: []string{"math"}, want: []string{"n1", "n2"}},
		{name: "favorites", query: "/fav", want: []string{"n1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, pub, svc := newSearchFixture(t)

			out, err := svc.Search(context.Background(), tt.query, tt.tags)
			require.NoError(t, err)
			assert.True(t, out.Applied)
			assert.ElementsMatch(t, tt.want, ids(out.Results))
			assert.ElementsMatch(t, tt.want, ids(svc.State().Results))
			assert.Equal(t, 1, pub.Count(events.SearchCompleted))
		})
	}
}

func TestSearch_EmptyQueryShortCircuits(t *testing.T) {
	store, _, svc := newSearchFixture(t)
	store.listEntered = make(chan string, 1)

	out, err := svc.Search(context.Background(), "   ", nil)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Empty(t, out.Results)
	assert.Empty(t, store.listEntered, "no store round trip")
}

func TestSearch_OutOfOrderResponsesAreDiscarded(t *testing.T) {
	store, _, svc := newSearchFixture(t)
	store.listEntered = make(chan string)
	store.listGates = map[string]chan struct{}{
		"alpha": make(chan struct{}),
		"beta":  make(chan struct{}),
	}
	ctx := context.Background()

	first := make(chan *SearchOutcome)
	go func() {
		out, _ := svc.Search(ctx, "alpha", nil)
		first <- out
	}()
	<-store.listEntered

	second := make(chan *SearchOutcome)
	go func() {
		out, _ := svc.Search(ctx, "beta", nil)
		second <- out
	}()
	<-store.listEntered

	close(store.listGates["beta"])
	newer := <-second
	close(store.listGates["alpha"])
	older := <-first

	assert.True(t, newer.Applied)
	assert.False(t, older.Applied)
	assert.Less(t, older.Seq, newer.Seq)

	state := svc.State()
	assert.Equal(t, newer.Seq, state.Seq)
	assert.Equal(t, "beta", state.Query)
	assert.Equal(t, []string{"n2"}, ids(state.Results))
	assert.False(t, state.Loading)
}

func TestSearch_EmptyQueryInvalidatesInFlightSearch(t *testing.T) {
	store, _, svc := newSearchFixture(t)
	store.listEntered = make(chan string)
	store.listGates = map[string]chan struct{}{"alpha": make(chan struct{})}
	ctx := context.Background()

	done := make(chan *SearchOutcome)
	go func() {
		out, _ := svc.Search(ctx, "alpha", nil)
		done <- out
	}()
	<-store.listEntered

	cleared, err := svc.Search(ctx, "", nil)
	require.NoError(t, err)
	close(store.listGates["alpha"])
	stale := <-done

	assert.False(t, stale.Applied)
	assert.Equal(t, cleared.Seq, svc.State().Seq)
	assert.Empty(t, svc.State().Results)
}
