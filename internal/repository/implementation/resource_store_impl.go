package implementation

import (
	"context"
	"errors"
	"fmt"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/mapper"
	"notehub-engine/internal/model"
	"notehub-engine/internal/repository/contract"
	"notehub-engine/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResourceStoreImpl deduplicates on a unique content_hash column.
type ResourceStoreImpl struct {
	db     *gorm.DB
	mapper *mapper.ResourceMapper
}

func NewResourceStore(db *gorm.DB) contract.ResourceStore {
	return &ResourceStoreImpl{
		db:     db,
		mapper: mapper.NewResourceMapper(),
	}
}

func (r *ResourceStoreImpl) byHash(ctx context.Context, hash string) (*model.Resource, error) {
	var m model.Resource
	err := specification.ByContentHash{Hash: hash}.
		Apply(r.db.WithContext(ctx)).
		Select("id", "content_hash").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &m, err
}

func (r *ResourceStoreImpl) Put(ctx context.Context, input entity.ResourceInput) (*entity.SyncResult, error) {
	hash := entity.ContentHash(input.Content)

	existing, err := r.byHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &entity.SyncResult{ResourceId: existing.Id, ContentHash: hash, IsNew: false}, nil
	}

	m := r.mapper.ToModel(&entity.Resource{
		Id:          uuid.NewString(),
		ContentHash: hash,
		TypeId:      input.TypeId,
		SourceId:    input.SourceId,
		Title:       input.Title,
		Content:     input.Content,
	})
	err = r.db.WithContext(ctx).Create(m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with an identical put.
		existing, err := r.byHash(ctx, hash)
		if err != nil || existing == nil {
			return nil, fmt.Errorf("resolve duplicate resource %s: %w", hash, err)
		}
		return &entity.SyncResult{ResourceId: existing.Id, ContentHash: hash, IsNew: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity.SyncResult{ResourceId: m.Id, ContentHash: hash, IsNew: true}, nil
}

func (r *ResourceStoreImpl) Get(ctx context.Context, id string) (*entity.Resource, error) {
	var m model.Resource
	err := specification.ByID{ID: id}.Apply(r.db.WithContext(ctx)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resource %s: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
