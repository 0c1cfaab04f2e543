package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/repository/contract"
)

var _ contract.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory contract.DocumentStore. It backs the engine
// when STORE_DRIVER=memory and is the store used by service tests.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*entity.Document
	revisions map[string]int64
	now       func() time.Time
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*entity.Document),
		revisions: make(map[string]int64),
		now:       time.Now,
	}
}

// Seed stores a document as-is, content included. Used to prime fixtures and
// to simulate writes made by other clients.
func (s *DocumentStore) Seed(doc *entity.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := doc.Clone()
	s.revisions[c.Id]++
	c.Revision = strconv.FormatInt(s.revisions[c.Id], 10)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.documents[c.Id] = c
}

func (s *DocumentStore) Get(_ context.Context, path string) (*entity.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[entity.IdFromPath(path)]
	if !ok {
		return nil, nil
	}
	return metadataOnly(doc), nil
}

func (s *DocumentStore) GetContent(_ context.Context, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[entity.IdFromPath(path)]
	if !ok {
		return "", fmt.Errorf("get content %s: %w", path, entity.ErrNotFound)
	}
	return doc.Content, nil
}

func (s *DocumentStore) List(_ context.Context, pathPrefix string, filter entity.DocumentFilter) ([]*entity.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	result := make([]*entity.Document, 0)
	for id, doc := range s.documents {
		if !strings.HasPrefix(entity.PathFor(id), pathPrefix) {
			continue
		}
		if filter.FavoritesOnly && !doc.IsFavorite {
			continue
		}
		if !hasAllTags(doc, filter.Tags) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(doc.Title), query) &&
			!strings.Contains(strings.ToLower(doc.Content), query) {
			continue
		}
		result = append(result, metadataOnly(doc))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].Id < result[j].Id
	})
	return result, nil
}

func (s *DocumentStore) Create(_ context.Context, path string, spec entity.CreateSpec) (*entity.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := entity.IdFromPath(path)
	if _, exists := s.documents[id]; exists {
		return nil, fmt.Errorf("create %s: already exists", path)
	}

	now := s.now()
	s.revisions[id] = 1
	doc := &entity.Document{
		Id:        id,
		Title:     spec.Title,
		Content:   spec.Content,
		Tags:      slices.Clone(spec.Tags),
		CreatedAt: now,
		UpdatedAt: now,
		Revision:  "1",
	}
	s.documents[id] = doc
	return metadataOnly(doc), nil
}

func (s *DocumentStore) Update(_ context.Context, path string, content string, _ entity.ContentKind, ifMatch string) (*entity.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := entity.IdFromPath(path)
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("update %s: %w", path, entity.ErrNotFound)
	}
	if ifMatch != "" && ifMatch != doc.Revision {
		return nil, &entity.ConflictError{
			Path:             path,
			ExpectedRevision: ifMatch,
			CurrentRevision:  doc.Revision,
		}
	}

	s.revisions[id]++
	doc.Content = content
	doc.Revision = strconv.FormatInt(s.revisions[id], 10)
	doc.UpdatedAt = s.now()
	return metadataOnly(doc), nil
}

func (s *DocumentStore) SetMetadata(_ context.Context, path string, fields entity.MetadataFields) (*entity.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[entity.IdFromPath(path)]
	if !ok {
		return nil, fmt.Errorf("set metadata %s: %w", path, entity.ErrNotFound)
	}
	if fields.Title != nil {
		doc.Title = *fields.Title
	}
	if fields.Tags != nil {
		doc.Tags = slices.Clone(*fields.Tags)
	}
	if fields.IsFavorite != nil {
		doc.IsFavorite = *fields.IsFavorite
	}
	if fields.Assets != nil {
		doc.Assets = slices.Clone(*fields.Assets)
	}
	doc.UpdatedAt = s.now()
	return metadataOnly(doc), nil
}

func (s *DocumentStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, entity.IdFromPath(path))
	return nil
}

func metadataOnly(doc *entity.Document) *entity.Document {
	c := doc.Clone()
	c.Content = ""
	return c
}

func hasAllTags(doc *entity.Document, tags []string) bool {
	for _, t := range tags {
		if !doc.HasTag(t) {
			return false
		}
	}
	return true
}
