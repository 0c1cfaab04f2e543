package origin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/repository/contract"
)

// PageSeparator splits textbook content into pages (form feed, as emitted
// by PDF text extraction).
const PageSeparator = "\f"

// StoreProvider resolves origins that live in the remote document store at
// entity.PathFor(originId). It has no synchronizer of its own.
type StoreProvider struct {
	kind    entity.OriginKind
	preview entity.PreviewKind
	store   contract.DocumentStore
}

func NewStoreProvider(kind entity.OriginKind, preview entity.PreviewKind, store contract.DocumentStore) *StoreProvider {
	return &StoreProvider{kind: kind, preview: preview, store: store}
}

// NewFileProvider serves generic files; they always take the generic sync path.
func NewFileProvider(store contract.DocumentStore) *StoreProvider {
	return NewStoreProvider(entity.OriginFile, entity.PreviewNone, store)
}

func (p *StoreProvider) Kind() entity.OriginKind { return p.kind }

func (p *StoreProvider) Resolve(ctx context.Context, originId string) (*Info, error) {
	doc, err := p.store.Get(ctx, entity.PathFor(originId))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return &Info{Title: doc.Title, PreviewKind: p.preview}, nil
}

func (p *StoreProvider) FetchContent(ctx context.Context, originId string) (*Content, error) {
	path := entity.PathFor(originId)
	doc, err := p.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%s %s: %w", p.kind, originId, entity.ErrNotFound)
	}
	body, err := p.store.GetContent(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Content{Title: doc.Title, Body: []byte(body)}, nil
}

// TextbookProvider syncs one resource per page.
type TextbookProvider struct {
	*StoreProvider
}

func NewTextbookProvider(store contract.DocumentStore) *TextbookProvider {
	return &TextbookProvider{NewStoreProvider(entity.OriginTextbook, entity.PreviewPDF, store)}
}

func (p *TextbookProvider) Sync(ctx context.Context, originId string, resources contract.ResourceStore) ([]entity.SyncResult, error) {
	content, err := p.FetchContent(ctx, originId)
	if err != nil {
		return nil, err
	}

	pages := strings.Split(string(content.Body), PageSeparator)
	results := make([]entity.SyncResult, 0, len(pages))
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		res, err := resources.Put(ctx, entity.ResourceInput{
			TypeId:   entity.TypeIdForKind(entity.OriginTextbook),
			SourceId: originId + "#page-" + strconv.Itoa(i+1),
			Title:    fmt.Sprintf("%s (p. %d)", content.Title, i+1),
			Content:  []byte(page),
		})
		if err != nil {
			return nil, fmt.Errorf("store textbook %s page %d: %w", originId, i+1, err)
		}
		results = append(results, *res)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("textbook %s has no content", originId)
	}
	return results, nil
}

// ExamProvider syncs a whole exam session as a single resource.
type ExamProvider struct {
	*StoreProvider
}

func NewExamProvider(store contract.DocumentStore) *ExamProvider {
	return &ExamProvider{NewStoreProvider(entity.OriginExam, entity.PreviewExam, store)}
}

func (p *ExamProvider) Sync(ctx context.Context, originId string, resources contract.ResourceStore) ([]entity.SyncResult, error) {
	content, err := p.FetchContent(ctx, originId)
	if err != nil {
		return nil, err
	}
	res, err := resources.Put(ctx, entity.ResourceInput{
		TypeId:   entity.TypeIdForKind(entity.OriginExam),
		SourceId: originId,
		Title:    content.Title,
		Content:  content.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("store exam session %s: %w", originId, err)
	}
	return []entity.SyncResult{*res}, nil
}
