package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/repository/contract"

	"github.com/google/uuid"
)

var _ contract.ResourceStore = (*ResourceStore)(nil)

type ResourceStore struct {
	mu     sync.Mutex
	byId   map[string]*entity.Resource
	byHash map[string]string
	puts   int
}

func NewResourceStore() *ResourceStore {
	return &ResourceStore{
		byId:   make(map[string]*entity.Resource),
		byHash: make(map[string]string),
	}
}

func (s *ResourceStore) Put(_ context.Context, input entity.ResourceInput) (*entity.SyncResult, error) {
	hash := entity.ContentHash(input.Content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++

	if id, ok := s.byHash[hash]; ok {
		return &entity.SyncResult{ResourceId: id, ContentHash: hash, IsNew: false}, nil
	}

	res := &entity.Resource{
		Id:          uuid.NewString(),
		ContentHash: hash,
		TypeId:      input.TypeId,
		SourceId:    input.SourceId,
		Title:       input.Title,
		Content:     slices.Clone(input.Content),
		CreatedAt:   time.Now(),
	}
	s.byId[res.Id] = res
	s.byHash[hash] = res.Id
	return &entity.SyncResult{ResourceId: res.Id, ContentHash: hash, IsNew: true}, nil
}

func (s *ResourceStore) Get(_ context.Context, id string) (*entity.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.byId[id]
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", id, entity.ErrNotFound)
	}
	c := *res
	c.Content = slices.Clone(res.Content)
	return &c, nil
}

// Len reports how many distinct resources are stored.
func (s *ResourceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byId)
}

// Puts reports how many Put calls were made, deduplicated or not.
func (s *ResourceStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
