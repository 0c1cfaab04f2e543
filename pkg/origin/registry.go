// Package origin resolves and materializes content owned by foreign sources
// (notes, textbooks, exam sessions, files). Each kind is a Provider looked up
// by kind in a Registry; adding a kind means registering a provider.
package origin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/repository/contract"
)

// Info describes an origin object that still exists.
type Info struct {
	Title       string
	PreviewKind entity.PreviewKind
}

type Content struct {
	Title string
	Body  []byte
}

// Provider is the capability set every origin kind implements.
// Resolve returns (nil, nil) when the origin object no longer exists.
type Provider interface {
	Kind() entity.OriginKind
	Resolve(ctx context.Context, originId string) (*Info, error)
	FetchContent(ctx context.Context, originId string) (*Content, error)
}

// Synchronizer is implemented by providers that know how to turn their
// content into resources themselves (segmented or holistic). Providers
// without it go through SyncGeneric.
type Synchronizer interface {
	Sync(ctx context.Context, originId string, resources contract.ResourceStore) ([]entity.SyncResult, error)
}

type Registry struct {
	mu        sync.RWMutex
	providers map[entity.OriginKind]Provider
	fallback  Provider
}

// NewRegistry creates a registry that answers unknown kinds with fallback.
func NewRegistry(fallback Provider) *Registry {
	return &Registry{
		providers: make(map[entity.OriginKind]Provider),
		fallback:  fallback,
	}
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Kind()] = p
}

// Lookup returns the provider for kind. known is false when the fallback
// provider was returned instead.
func (r *Registry) Lookup(kind entity.OriginKind) (p Provider, known bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[kind]; ok {
		return p, true
	}
	return r.fallback, false
}

func (r *Registry) Kinds() []entity.OriginKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]entity.OriginKind, 0, len(r.providers))
	for k := range r.providers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Sync materializes originId through p, using its own synchronizer when it
// has one. kind selects the resource type id.
func Sync(ctx context.Context, p Provider, kind entity.OriginKind, originId string, resources contract.ResourceStore) ([]entity.SyncResult, error) {
	if p == nil {
		return nil, fmt.Errorf("no provider for origin kind %q", kind)
	}
	if s, ok := p.(Synchronizer); ok {
		return s.Sync(ctx, originId, resources)
	}
	return SyncGeneric(ctx, p, kind, originId, resources)
}

// SyncGeneric fetches the raw content and stores it as one resource.
func SyncGeneric(ctx context.Context, p Provider, kind entity.OriginKind, originId string, resources contract.ResourceStore) ([]entity.SyncResult, error) {
	content, err := p.FetchContent(ctx, originId)
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", kind, originId, err)
	}

	res, err := resources.Put(ctx, entity.ResourceInput{
		TypeId:   entity.TypeIdForKind(kind),
		SourceId: originId,
		Title:    content.Title,
		Content:  content.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("store %s/%s: %w", kind, originId, err)
	}
	return []entity.SyncResult{*res}, nil
}
