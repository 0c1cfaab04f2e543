package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/repository/contract"
	"notehub-engine/pkg/assets"
	"notehub-engine/pkg/events"

	"golang.org/x/sync/singleflight"
)

const cacheModule = "DocumentCache"

type IDocumentCacheService interface {
	EnsureLoaded(ctx context.Context, id string) (*LoadedDocument, error)
	ForceReload(ctx context.Context, id string) (*LoadedDocument, error)
	Save(ctx context.Context, id string, content string, title *string) (*SaveResult, error)
	Load(ctx context.Context, id string) (*entity.Document, error)

	// Refresh replaces the cached metadata with the store's listing.
	Refresh(ctx context.Context) error
	Insert(doc *entity.Document, loaded bool)
	Merge(doc *entity.Document)
	Remove(id string)
	Peek(id string) (*entity.Document, bool)
	List() []*entity.Document
	Exists(ctx context.Context, id string) (bool, error)
	IsLoaded(id string) bool
	State(id string) entity.DocState

	SetActive(id string)
	Active() *entity.Document

	SetMaintenanceMode(enabled bool)

	// Wait blocks until background loads and reloads have finished.
	Wait()
}

// LoadedDocument is the handle returned by a successful load. Saving through
// it goes through the cache's save path.
type LoadedDocument struct {
	cache IDocumentCacheService
	doc   *entity.Document
}

func (d *LoadedDocument) Id() string { return d.doc.Id }

func (d *LoadedDocument) Document() *entity.Document { return d.doc.Clone() }

func (d *LoadedDocument) Save(ctx context.Context, content string, title *string) (*SaveResult, error) {
	return d.cache.Save(ctx, d.doc.Id, content, title)
}

// SaveResult carries the committed document. TitleWarning is set when the
// content was saved but the separate title update failed.
type SaveResult struct {
	Document     *entity.Document
	TitleWarning error
}

type documentCacheService struct {
	store       contract.DocumentStore
	publisher   events.Publisher
	log         logger.ILogger
	contentKind entity.ContentKind

	mu          sync.Mutex
	docs        map[string]*entity.Document
	loaded      map[string]bool
	states      map[string]entity.DocState
	activeId    string
	maintenance bool

	loads      singleflight.Group
	background sync.WaitGroup
}

func NewDocumentCacheService(
	store contract.DocumentStore,
	publisher events.Publisher,
	log logger.ILogger,
	contentKind entity.ContentKind,
) IDocumentCacheService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if contentKind == "" {
		contentKind = entity.ContentKindMarkdown
	}
	return &documentCacheService{
		store:       store,
		publisher:   publisher,
		log:         log,
		contentKind: contentKind,
		docs:        make(map[string]*entity.Document),
		loaded:      make(map[string]bool),
		states:      make(map[string]entity.DocState),
	}
}

func (s *documentCacheService) handle(doc *entity.Document) *LoadedDocument {
	return &LoadedDocument{cache: s, doc: doc}
}

func (s *documentCacheService) loadedCopy(id string) (*entity.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded[id] {
		return nil, false
	}
	doc, ok := s.docs[id]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

// EnsureLoaded returns the loaded document, fetching content at most once
// for concurrent callers.
func (s *documentCacheService) EnsureLoaded(ctx context.Context, id string) (*LoadedDocument, error) {
	if doc, ok := s.loadedCopy(id); ok {
		return s.handle(doc), nil
	}

	// The shared fetch outlives any single caller; each caller stops
	// waiting on its own context.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(id, func() (interface{}, error) {
		// A load that finished between the check above and joining the
		// group must not trigger a second fetch.
		if doc, ok := s.loadedCopy(id); ok {
			return doc, nil
		}
		return s.fetch(fetchCtx, id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return s.handle(res.Val.(*entity.Document).Clone()), nil
	}
}

// ForceReload always fetches, discarding any cached content.
func (s *documentCacheService) ForceReload(ctx context.Context, id string) (*LoadedDocument, error) {
	doc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(events.New(events.ContentChanged, map[string]interface{}{
		"document_id": id,
	}))
	return s.handle(doc), nil
}

func (s *documentCacheService) Load(ctx context.Context, id string) (*entity.Document, error) {
	h, err := s.EnsureLoaded(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.Document(), nil
}

func (s *documentCacheService) fetch(ctx context.Context, id string) (*entity.Document, error) {
	path := entity.PathFor(id)
	s.setState(id, entity.DocStateLoading)

	doc, err := s.store.Get(ctx, path)
	if err != nil {
		s.setState(id, entity.DocStateUnloaded)
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	if doc == nil {
		s.Remove(id)
		return nil, fmt.Errorf("load %s: %w", id, entity.ErrNotFound)
	}

	content, err := s.store.GetContent(ctx, path)
	if err != nil {
		s.setState(id, entity.DocStateUnloaded)
		return nil, fmt.Errorf("load content %s: %w", id, err)
	}
	doc.Content = content

	s.mu.Lock()
	s.docs[id] = doc
	s.loaded[id] = true
	s.states[id] = entity.DocStateLoaded
	s.mu.Unlock()

	s.log.Debug(cacheModule, "Document loaded", map[string]interface{}{
		"document_id": id,
		"revision":    doc.Revision,
	})
	return doc.Clone(), nil
}

func (s *documentCacheService) Save(ctx context.Context, id string, content string, title *string) (*SaveResult, error) {
	s.mu.Lock()
	if s.maintenance {
		s.mu.Unlock()
		return nil, entity.ErrMaintenanceMode
	}
	cached, ok := s.docs[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("save %s: %w", id, entity.ErrNotFound)
	}
	if !s.loaded[id] {
		s.mu.Unlock()
		s.loadInBackground(ctx, id)
		return nil, fmt.Errorf("save %s: %w", id, entity.ErrContentNotLoaded)
	}
	revision := cached.Revision
	known := cached.Clone().Assets
	s.states[id] = entity.DocStateSaving
	s.mu.Unlock()

	content, rewritten := assets.Rewrite(content, known)
	if rewritten > 0 {
		s.log.Debug(cacheModule, "Rewrote preview URLs before save", map[string]interface{}{
			"document_id": id,
			"count":       rewritten,
		})
	}

	updated, err := s.store.Update(ctx, entity.PathFor(id), content, s.contentKind, revision)
	if err != nil {
		return nil, s.saveFailed(ctx, id, err)
	}

	result := &SaveResult{}
	if title != nil && *title != updated.Title {
		meta, err := s.store.SetMetadata(ctx, entity.PathFor(id), entity.MetadataFields{Title: title})
		if err != nil {
			result.TitleWarning = fmt.Errorf("update title %s: %w", id, err)
			s.log.Warn(cacheModule, "Content saved but title update failed", map[string]interface{}{
				"document_id": id,
				"error":       err,
			})
			s.publisher.Publish(events.New(events.Warning, map[string]interface{}{
				"message":     "title update failed",
				"document_id": id,
			}))
		} else {
			updated.Title = meta.Title
			updated.UpdatedAt = meta.UpdatedAt
		}
	}

	committed := updated.Clone()
	committed.Content = content

	s.mu.Lock()
	if _, stillCached := s.docs[id]; stillCached {
		s.docs[id] = committed.Clone()
		s.loaded[id] = true
		s.states[id] = entity.DocStateLoaded
	}
	s.mu.Unlock()

	s.publisher.Publish(events.New(events.ContentChanged, map[string]interface{}{
		"document_id": id,
	}))

	result.Document = committed
	return result, nil
}

func (s *documentCacheService) saveFailed(ctx context.Context, id string, err error) error {
	s.mu.Lock()
	delete(s.loaded, id)

	if errors.Is(err, entity.ErrRevisionConflict) {
		s.states[id] = entity.DocStateConflict
		s.mu.Unlock()

		details := map[string]interface{}{"document_id": id}
		var conflict *entity.ConflictError
		if errors.As(err, &conflict) {
			details["expected_revision"] = conflict.ExpectedRevision
			details["current_revision"] = conflict.CurrentRevision
		}
		s.log.Warn(cacheModule, "Save rejected, document changed remotely", details)
		s.publisher.Publish(events.New(events.SaveConflict, details))

		s.reloadInBackground(ctx, id)
		return fmt.Errorf("save %s: %w: %w", id, entity.ErrSaveConflict, err)
	}

	s.states[id] = entity.DocStateUnloaded
	s.mu.Unlock()

	s.log.Error(cacheModule, "Save failed", map[string]interface{}{
		"document_id": id,
		"error":       err,
	})
	return fmt.Errorf("save %s: %w: %w", id, entity.ErrSaveFailed, err)
}

func (s *documentCacheService) loadInBackground(ctx context.Context, id string) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if _, err := s.EnsureLoaded(context.WithoutCancel(ctx), id); err != nil {
			s.log.Warn(cacheModule, "Background load failed", map[string]interface{}{
				"document_id": id,
				"error":       err,
			})
		}
	}()
}

func (s *documentCacheService) reloadInBackground(ctx context.Context, id string) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if _, err := s.ForceReload(context.WithoutCancel(ctx), id); err != nil {
			s.log.Warn(cacheModule, "Reload after conflict failed", map[string]interface{}{
				"document_id": id,
				"error":       err,
			})
		}
	}()
}

func (s *documentCacheService) Wait() {
	s.background.Wait()
}

func (s *documentCacheService) Refresh(ctx context.Context) error {
	remote, err := s.store.List(ctx, "/", entity.DocumentFilter{})
	if err != nil {
		return fmt.Errorf("refresh documents: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*entity.Document, len(remote))
	for _, doc := range remote {
		cached, ok := s.docs[doc.Id]
		switch {
		case !ok || !s.loaded[doc.Id]:
			next[doc.Id] = doc.Clone()
		case s.states[doc.Id] == entity.DocStateSaving:
			next[doc.Id] = cached
		case cached.Revision != doc.Revision:
			// Changed elsewhere: drop stale content, the next open refetches.
			next[doc.Id] = doc.Clone()
			delete(s.loaded, doc.Id)
			s.states[doc.Id] = entity.DocStateUnloaded
		default:
			merged := doc.Clone()
			merged.Content = cached.Content
			next[doc.Id] = merged
		}
	}
	for id := range s.docs {
		if _, ok := next[id]; !ok {
			delete(s.loaded, id)
			delete(s.states, id)
		}
	}
	s.docs = next

	s.log.Info(cacheModule, "Document list refreshed", map[string]interface{}{
		"count": len(next),
	})
	return nil
}

// Insert caches doc. With loaded=true its Content is taken as authoritative.
func (s *documentCacheService) Insert(doc *entity.Document, loaded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Id] = doc.Clone()
	if loaded {
		s.loaded[doc.Id] = true
		s.states[doc.Id] = entity.DocStateLoaded
	} else {
		delete(s.loaded, doc.Id)
		s.states[doc.Id] = entity.DocStateUnloaded
	}
}

// Merge applies metadata returned by the store, keeping any loaded content
// and the revision it was loaded at.
func (s *documentCacheService) Merge(doc *entity.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached, ok := s.docs[doc.Id]
	if !ok {
		s.docs[doc.Id] = doc.Clone()
		s.states[doc.Id] = entity.DocStateUnloaded
		return
	}
	merged := doc.Clone()
	if s.loaded[doc.Id] {
		merged.Content = cached.Content
		merged.Revision = cached.Revision
	}
	s.docs[doc.Id] = merged
}

func (s *documentCacheService) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	delete(s.loaded, id)
	delete(s.states, id)
	if s.activeId == id {
		s.activeId = ""
	}
}

func (s *documentCacheService) Peek(id string) (*entity.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

// List returns cached documents, most recently updated first.
func (s *documentCacheService) List() []*entity.Document {
	s.mu.Lock()
	out := make([]*entity.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc.Clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Id < out[j].Id
	})
	return out
}

// Exists answers from the cache first and falls back to the store, caching
// the metadata it finds.
func (s *documentCacheService) Exists(ctx context.Context, id string) (bool, error) {
	if _, ok := s.Peek(id); ok {
		return true, nil
	}
	doc, err := s.store.Get(ctx, entity.PathFor(id))
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}
	s.Merge(doc)
	return true, nil
}

func (s *documentCacheService) IsLoaded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded[id]
}

func (s *documentCacheService) State(id string) entity.DocState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[id]; ok {
		return st
	}
	return entity.DocStateUnloaded
}

func (s *documentCacheService) setState(id string, st entity.DocState) {
	s.mu.Lock()
	s.states[id] = st
	s.mu.Unlock()
}

// SetActive marks the document the editor shows; "" clears it.
func (s *documentCacheService) SetActive(id string) {
	s.mu.Lock()
	s.activeId = id
	s.mu.Unlock()
}

// Active mirrors the active document as currently cached, or nil.
func (s *documentCacheService) Active() *entity.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeId == "" {
		return nil
	}
	return s.docs[s.activeId].Clone()
}

func (s *documentCacheService) SetMaintenanceMode(enabled bool) {
	s.mu.Lock()
	s.maintenance = enabled
	s.mu.Unlock()
	s.log.Info(cacheModule, "Maintenance mode changed", map[string]interface{}{
		"enabled": enabled,
	})
}
