package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"notehub-engine/internal/dto"
	"notehub-engine/internal/entity"
	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/repository/contract"
	"notehub-engine/pkg/events"

	"github.com/google/uuid"
)

const noteModule = "NoteService"

const defaultTitle = "Untitled"

type INoteService interface {
	Create(ctx context.Context, req *dto.CreateDocumentRequest) (*entity.Document, error)
	Delete(ctx context.Context, id string) error
	Rename(ctx context.Context, id, title string) (*entity.Document, error)
	SetFavorite(ctx context.Context, id string, favorite bool) (*entity.Document, error)
	Move(ctx context.Context, id, parentId string, index int) error

	// LoadWorkspace refreshes the document list, loads the tree and restores
	// the view, in that order.
	LoadWorkspace(ctx context.Context) error

	// HandleExternalMutation reloads a document another actor (an assistant
	// or a second client) has just written.
	HandleExternalMutation(ctx context.Context, id, actor string) error
}

type noteService struct {
	store     contract.DocumentStore
	cache     IDocumentCacheService
	view      IViewService
	folders   IFolderService
	publisher events.Publisher
	log       logger.ILogger
	kind      entity.ContentKind
}

func NewNoteService(
	store contract.DocumentStore,
	cache IDocumentCacheService,
	view IViewService,
	folders IFolderService,
	publisher events.Publisher,
	log logger.ILogger,
	kind entity.ContentKind,
) INoteService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if kind == "" {
		kind = entity.ContentKindMarkdown
	}
	return &noteService{
		store:     store,
		cache:     cache,
		view:      view,
		folders:   folders,
		publisher: publisher,
		log:       log,
		kind:      kind,
	}
}

func (c *noteService) Create(ctx context.Context, req *dto.CreateDocumentRequest) (*entity.Document, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle
	}

	id := uuid.NewString()
	doc, err := c.store.Create(ctx, entity.PathFor(id), entity.CreateSpec{
		Title:   title,
		Content: req.Content,
		Kind:    c.kind,
		Tags:    req.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	doc.Content = req.Content

	// Fresh documents are loaded by definition: the store has exactly
	// what we sent.
	c.cache.Insert(doc, true)

	if err := c.folders.Attach(ctx, doc.Id, req.ParentId); err != nil {
		c.log.Warn(noteModule, "Created document could not be placed in folder", map[string]interface{}{
			"document_id": doc.Id,
			"parent_id":   req.ParentId,
			"error":       err,
		})
	}

	if err := c.view.OpenTab(ctx, doc.Id); err != nil {
		c.log.Warn(noteModule, "Could not open tab for new document", map[string]interface{}{
			"document_id": doc.Id,
			"error":       err,
		})
	}

	c.publisher.Publish(events.New(events.DocumentCreated, map[string]interface{}{
		"document_id": doc.Id,
		"title":       doc.Title,
	}))
	return doc.Clone(), nil
}

func (c *noteService) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, entity.PathFor(id)); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	c.forget(ctx, id)
	c.publisher.Publish(events.New(events.DocumentDeleted, map[string]interface{}{"document_id": id}))
	return nil
}

func (c *noteService) forget(ctx context.Context, id string) {
	c.cache.Remove(id)
	c.view.ForgetDocument(id)
	if err := c.folders.Detach(ctx, id); err != nil {
		c.log.Warn(noteModule, "Could not detach document from tree", map[string]interface{}{
			"document_id": id,
			"error":       err,
		})
	}
}

func (c *noteService) Rename(ctx context.Context, id, title string) (*entity.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}
	return c.setMetadata(ctx, id, entity.MetadataFields{Title: &title})
}

func (c *noteService) SetFavorite(ctx context.Context, id string, favorite bool) (*entity.Document, error) {
	return c.setMetadata(ctx, id, entity.MetadataFields{IsFavorite: &favorite})
}

func (c *noteService) setMetadata(ctx context.Context, id string, fields entity.MetadataFields) (*entity.Document, error) {
	updated, err := c.store.SetMetadata(ctx, entity.PathFor(id), fields)
	if err != nil {
		return nil, err
	}
	c.cache.Merge(updated)
	doc, _ := c.cache.Peek(id)
	return doc, nil
}

func (c *noteService) Move(ctx context.Context, id, parentId string, index int) error {
	if _, ok := c.cache.Peek(id); !ok {
		return fmt.Errorf("move %s: %w", id, entity.ErrNotFound)
	}
	return c.folders.Move(ctx, id, parentId, index)
}

func (c *noteService) LoadWorkspace(ctx context.Context) error {
	if err := c.cache.Refresh(ctx); err != nil {
		return err
	}
	if err := c.folders.Load(ctx); err != nil {
		return err
	}
	return c.view.Hydrate(ctx)
}

func (c *noteService) HandleExternalMutation(ctx context.Context, id, actor string) error {
	c.aiStatus(id, "busy", actor)
	defer c.aiStatus(id, "idle", actor)

	_, err := c.cache.ForceReload(ctx, id)
	if errors.Is(err, entity.ErrNotFound) {
		c.forget(ctx, id)
		c.publisher.Publish(events.New(events.DocumentDeleted, map[string]interface{}{"document_id": id}))
		return nil
	}
	if err != nil {
		return err
	}

	c.log.Info(noteModule, "Reloaded after external write", map[string]interface{}{
		"document_id": id,
		"actor":       actor,
	})
	return nil
}

func (c *noteService) aiStatus(id, status, actor string) {
	c.publisher.Publish(events.New(events.AIStatusChanged, map[string]interface{}{
		"document_id": id,
		"status":      status,
		"actor":       actor,
	}))
}
