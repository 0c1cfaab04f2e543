package service

import (
	"context"
	"slices"
	"sync"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/repository/contract"
	"notehub-engine/pkg/events"
	"notehub-engine/pkg/search"
)

const searchModule = "SearchCoordinator"

// SearchState is what the search view renders. Only the response of the
// latest request is ever written here.
type SearchState struct {
	Seq     uint64
	Query   string
	Tags    []string
	Results []*entity.Document
	Err     error
	Loading bool
}

// SearchOutcome is the answer to one Search call. Applied is false when a
// newer request superseded it.
type SearchOutcome struct {
	Seq     uint64
	Results []*entity.Document
	Applied bool
}

type ISearchService interface {
	// Search returns an error only when the outcome was applied.
	Search(ctx context.Context, query string, tags []string) (*SearchOutcome, error)
	State() SearchState
}

type searchService struct {
	store     contract.DocumentStore
	publisher events.Publisher
	log       logger.ILogger

	mu    sync.Mutex
	seq   uint64
	state SearchState
}

func NewSearchService(store contract.DocumentStore, publisher events.Publisher, log logger.ILogger) ISearchService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &searchService{
		store:     store,
		publisher: publisher,
		log:       log,
		state:     SearchState{Results: []*entity.Document{}},
	}
}

func (s *searchService) Search(ctx context.Context, query string, tags []string) (*SearchOutcome, error) {
	filters := search.ParseQuery(query)
	filter := entity.DocumentFilter{
		Query:         filters.SearchQuery,
		Tags:          search.MergeTags(tags, filters.Tags),
		FavoritesOnly: filters.FavoritesOnly,
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if filter.IsEmpty() {
		s.state = SearchState{Seq: seq, Query: query, Results: []*entity.Document{}}
		s.mu.Unlock()
		return &SearchOutcome{Seq: seq, Results: []*entity.Document{}, Applied: true}, nil
	}
	s.state.Seq = seq
	s.state.Query = query
	s.state.Tags = slices.Clone(filter.Tags)
	s.state.Loading = true
	s.mu.Unlock()

	docs, err := s.store.List(ctx, "/", filter)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		s.log.Debug(searchModule, "Discarding stale search response", map[string]interface{}{
			"seq":    seq,
			"latest": s.latest(),
		})
		return &SearchOutcome{Seq: seq, Results: docs, Applied: false}, nil
	}
	if docs == nil {
		docs = []*entity.Document{}
	}
	s.state.Results = docs
	s.state.Err = err
	s.state.Loading = false
	s.mu.Unlock()

	if err != nil {
		s.log.Warn(searchModule, "Search failed", map[string]interface{}{
			"query": query,
			"error": err,
		})
		return &SearchOutcome{Seq: seq, Results: docs, Applied: true}, err
	}

	s.publisher.Publish(events.New(events.SearchCompleted, map[string]interface{}{
		"seq":   seq,
		"query": query,
		"count": len(docs),
	}))
	return &SearchOutcome{Seq: seq, Results: docs, Applied: true}, nil
}

func (s *searchService) latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *searchService) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Tags = slices.Clone(s.state.Tags)
	st.Results = slices.Clone(s.state.Results)
	return st
}
