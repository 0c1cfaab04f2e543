package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/repository/memory"
	"notehub-engine/pkg/events"
	"notehub-engine/pkg/origin"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(evt events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) Count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) Last(eventType string) events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].EventType() == eventType {
			return p.events[i]
		}
	}
	return nil
}

// fakeStore wraps the memory store with call counters, a gate on content
// fetches and injectable failures.
type fakeStore struct {
	*memory.DocumentStore

	mu           sync.Mutex
	contentCalls int
	contentGate  chan struct{}
	updateErr    error
	metadataErr  error
	failMetaFor  map[string]bool

	listEntered chan string
	listGates   map[string]chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{DocumentStore: memory.NewDocumentStore()}
}

func (s *fakeStore) GetContent(ctx context.Context, path string) (string, error) {
	s.mu.Lock()
	s.contentCalls++
	gate := s.contentGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return s.DocumentStore.GetContent(ctx, path)
}

func (s *fakeStore) ContentCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contentCalls
}

func (s *fakeStore) Update(ctx context.Context, path, content string, kind entity.ContentKind, ifMatch string) (*entity.Document, error) {
	s.mu.Lock()
	err := s.updateErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.DocumentStore.Update(ctx, path, content, kind, ifMatch)
}

func (s *fakeStore) SetMetadata(ctx context.Context, path string, fields entity.MetadataFields) (*entity.Document, error) {
	s.mu.Lock()
	err := s.metadataErr
	if s.failMetaFor[entity.IdFromPath(path)] {
		err = context.DeadlineExceeded
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.DocumentStore.SetMetadata(ctx, path, fields)
}

func (s *fakeStore) List(ctx context.Context, prefix string, filter entity.DocumentFilter) ([]*entity.Document, error) {
	s.mu.Lock()
	gate := s.listGates[filter.Query]
	entered := s.listEntered
	s.mu.Unlock()
	if entered != nil {
		entered <- filter.Query
	}
	if gate != nil {
		<-gate
	}
	return s.DocumentStore.List(ctx, prefix, filter)
}

type engine struct {
	store      *fakeStore
	prefs      *memory.PreferenceStore
	treeRepo   *memory.TreeRepository
	sessions   *memory.SessionRepository
	resources  *memory.ResourceStore
	publisher  *recordingPublisher
	cache      IDocumentCacheService
	view       IViewService
	folders    IFolderService
	references IReferenceService
	bridge     IResourceBridgeService
	notes      INoteService
}

const testPrefKey = "view-state"

func newEngine(t *testing.T) *engine {
	t.Helper()
	log := logger.NewNopLogger()
	e := &engine{
		store:     newFakeStore(),
		prefs:     memory.NewPreferenceStore(),
		treeRepo:  memory.NewTreeRepository(),
		sessions:  memory.NewSessionRepository(time.Hour),
		resources: memory.NewResourceStore(),
		publisher: &recordingPublisher{},
	}
	e.cache = NewDocumentCacheService(e.store, e.publisher, log, entity.ContentKindMarkdown)
	e.view = NewViewService(e.cache, e.prefs, e.publisher, log, testPrefKey, 0)
	e.folders = NewFolderService(e.treeRepo, log)

	origins := origin.NewRegistry(origin.NewFileProvider(e.store))
	origins.Register(origin.NewDocumentProvider(e.cache, e.store))
	origins.Register(origin.NewTextbookProvider(e.store))
	origins.Register(origin.NewExamProvider(e.store))
	origins.Register(origin.NewFileProvider(e.store))

	e.references = NewReferenceService(e.folders, origins, e.publisher, log, time.Minute, 4)
	e.bridge = NewResourceBridgeService(e.cache, e.references, e.sessions, e.resources, origins, e.publisher, log)
	e.notes = NewNoteService(e.store, e.cache, e.view, e.folders, e.publisher, log, entity.ContentKindMarkdown)

	t.Cleanup(func() {
		e.view.Close()
		e.cache.Wait()
	})
	return e
}

// seed stores docs remotely and refreshes the cache's metadata.
func (e *engine) seed(t *testing.T, docs ...*entity.Document) {
	t.Helper()
	for _, d := range docs {
		e.store.Seed(d)
	}
	if err := e.cache.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
}
