package origin

import (
	"context"
	"fmt"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/repository/contract"
	"notehub-engine/pkg/lexical"
)

// DocumentLoader yields a document with its content loaded.
type DocumentLoader interface {
	Load(ctx context.Context, id string) (*entity.Document, error)
}

// DocumentProvider serves the user's own notes. Content comes through the
// document cache so a note is never fetched twice; rich editor state is
// flattened to text before it leaves.
type DocumentProvider struct {
	loader DocumentLoader
	store  contract.DocumentStore
}

func NewDocumentProvider(loader DocumentLoader, store contract.DocumentStore) *DocumentProvider {
	return &DocumentProvider{loader: loader, store: store}
}

func (p *DocumentProvider) Kind() entity.OriginKind { return entity.OriginDocument }

func (p *DocumentProvider) Resolve(ctx context.Context, id string) (*Info, error) {
	doc, err := p.store.Get(ctx, entity.PathFor(id))
	if err != nil || doc == nil {
		return nil, err
	}
	return &Info{Title: doc.Title, PreviewKind: entity.PreviewMarkdown}, nil
}

func (p *DocumentProvider) FetchContent(ctx context.Context, id string) (*Content, error) {
	doc, err := p.loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Content{Title: doc.Title, Body: []byte(lexical.ToText(doc.Content))}, nil
}

// Sync stores the whole note as one resource.
func (p *DocumentProvider) Sync(ctx context.Context, id string, resources contract.ResourceStore) ([]entity.SyncResult, error) {
	content, err := p.FetchContent(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := resources.Put(ctx, entity.ResourceInput{
		TypeId:   entity.TypeIdForKind(entity.OriginDocument),
		SourceId: id,
		Title:    content.Title,
		Content:  content.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("store note %s: %w", id, err)
	}
	return []entity.SyncResult{*res}, nil
}
