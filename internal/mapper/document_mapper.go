package mapper

import (
	"slices"
	"strconv"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	assets := make([]entity.Asset, 0, len(d.Assets))
	for _, a := range d.Assets {
		assets = append(assets, entity.Asset{RelativePath: a.RelativePath, PreviewURL: a.PreviewURL})
	}

	return &entity.Document{
		Id:         d.Id,
		Title:      d.Title,
		Content:    d.Content,
		Tags:       slices.Clone([]string(d.Tags)),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		IsFavorite: d.IsFavorite,
		Revision:   strconv.FormatInt(d.Revision, 10),
		Assets:     assets,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

func (m *DocumentMapper) AssetsToModel(assets []entity.Asset) []model.AssetJSON {
	out := make([]model.AssetJSON, 0, len(assets))
	for _, a := range assets {
		out = append(out, model.AssetJSON{RelativePath: a.RelativePath, PreviewURL: a.PreviewURL})
	}
	return out
}

// ParseRevision turns an entity revision back into the stored counter.
func ParseRevision(rev string) (int64, bool) {
	n, err := strconv.ParseInt(rev, 10, 64)
	return n, err == nil
}
