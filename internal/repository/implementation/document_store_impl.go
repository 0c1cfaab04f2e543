package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/mapper"
	"notehub-engine/internal/model"
	"notehub-engine/internal/repository/contract"
	"notehub-engine/internal/repository/scope"
	"notehub-engine/internal/repository/specification"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DocumentStoreImpl is the postgres-backed remote document store. Revisions
// are a per-row counter bumped by every content update.
type DocumentStoreImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentStore(db *gorm.DB) contract.DocumentStore {
	return &DocumentStoreImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentStoreImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentStoreImpl) findOne(ctx context.Context, specs ...specification.Specification) (*model.Document, error) {
	var m model.Document
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *DocumentStoreImpl) Get(ctx context.Context, path string) (*entity.Document, error) {
	m, err := r.findOne(ctx,
		specification.ByID{ID: entity.IdFromPath(path)},
		specification.MetadataOnly{},
	)
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(m), nil
}

func (r *DocumentStoreImpl) GetContent(ctx context.Context, path string) (string, error) {
	var contents []string
	err := r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", entity.IdFromPath(path)).
		Pluck("content", &contents).Error
	if err != nil {
		return "", err
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("get content %s: %w", path, entity.ErrNotFound)
	}
	return contents[0], nil
}

func (r *DocumentStoreImpl) List(ctx context.Context, pathPrefix string, filter entity.DocumentFilter) ([]*entity.Document, error) {
	specs := []specification.Specification{
		specification.ByPathPrefix{Prefix: pathPrefix},
		specification.HasAllTags{Tags: filter.Tags},
		specification.TitleOrContent{Query: filter.Query},
		specification.MetadataOnly{},
	}
	if filter.FavoritesOnly {
		specs = append(specs, specification.FavoritesOnly{})
	}

	var models []*model.Document
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Scopes(scope.MostRecentFirst).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentStoreImpl) Create(ctx context.Context, path string, spec entity.CreateSpec) (*entity.Document, error) {
	tags := spec.Tags
	if tags == nil {
		tags = []string{}
	}
	kind := spec.Kind
	if kind == "" {
		kind = entity.ContentKindMarkdown
	}
	m := &model.Document{
		Id:       entity.IdFromPath(path),
		Title:    spec.Title,
		Content:  spec.Content,
		Kind:     string(kind),
		Tags:     datatypes.NewJSONSlice(tags),
		Assets:   datatypes.NewJSONSlice([]model.AssetJSON{}),
		Revision: 1,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	doc := r.mapper.ToEntity(m)
	doc.Content = ""
	return doc, nil
}

func (r *DocumentStoreImpl) Update(ctx context.Context, path string, content string, kind entity.ContentKind, ifMatch string) (*entity.Document, error) {
	id := entity.IdFromPath(path)
	query := r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id)
	if ifMatch != "" {
		rev, ok := mapper.ParseRevision(ifMatch)
		if !ok {
			return nil, r.conflict(ctx, path, ifMatch)
		}
		query = query.Where("revision = ?", rev)
	}

	res := query.Updates(map[string]interface{}{
		"content":    content,
		"kind":       string(kind),
		"revision":   gorm.Expr("revision + 1"),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, r.conflict(ctx, path, ifMatch)
	}
	return r.Get(ctx, path)
}

// conflict explains a zero-row update: either the row is gone or its
// revision moved on.
func (r *DocumentStoreImpl) conflict(ctx context.Context, path, ifMatch string) error {
	current, err := r.Get(ctx, path)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("update %s: %w", path, entity.ErrNotFound)
	}
	return &entity.ConflictError{
		Path:             path,
		ExpectedRevision: ifMatch,
		CurrentRevision:  current.Revision,
	}
}

func (r *DocumentStoreImpl) SetMetadata(ctx context.Context, path string, fields entity.MetadataFields) (*entity.Document, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if fields.Title != nil {
		updates["title"] = *fields.Title
	}
	if fields.Tags != nil {
		updates["tags"] = datatypes.NewJSONSlice(*fields.Tags)
	}
	if fields.IsFavorite != nil {
		updates["is_favorite"] = *fields.IsFavorite
	}
	if fields.Assets != nil {
		updates["assets"] = datatypes.NewJSONSlice(r.mapper.AssetsToModel(*fields.Assets))
	}

	res := r.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ?", entity.IdFromPath(path)).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("set metadata %s: %w", path, entity.ErrNotFound)
	}
	return r.Get(ctx, path)
}

func (r *DocumentStoreImpl) Delete(ctx context.Context, path string) error {
	return r.db.WithContext(ctx).Delete(&model.Document{}, "id = ?", entity.IdFromPath(path)).Error
}
