package mapper

import (
	"notehub-engine/internal/entity"
	"notehub-engine/internal/model"
)

type ResourceMapper struct{}

func NewResourceMapper() *ResourceMapper {
	return &ResourceMapper{}
}

func (m *ResourceMapper) ToEntity(r *model.Resource) *entity.Resource {
	if r == nil {
		return nil
	}
	return &entity.Resource{
		Id:          r.Id,
		ContentHash: r.ContentHash,
		TypeId:      r.TypeId,
		SourceId:    r.SourceId,
		Title:       r.Title,
		Content:     r.Content,
		CreatedAt:   r.CreatedAt,
	}
}

func (m *ResourceMapper) ToModel(r *entity.Resource) *model.Resource {
	if r == nil {
		return nil
	}
	return &model.Resource{
		Id:          r.Id,
		ContentHash: r.ContentHash,
		TypeId:      r.TypeId,
		SourceId:    r.SourceId,
		Title:       r.Title,
		Content:     r.Content,
		CreatedAt:   r.CreatedAt,
	}
}
