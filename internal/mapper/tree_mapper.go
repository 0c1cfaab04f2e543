package mapper

import (
	"slices"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/model"
)

type TreeMapper struct{}

func NewTreeMapper() *TreeMapper {
	return &TreeMapper{}
}

func (m *TreeMapper) ToEntity(folders []*model.Folder, refs []*model.ReferenceNode) *entity.Tree {
	tree := entity.NewTree()
	for _, f := range folders {
		tree.Folders[f.Id] = &entity.Folder{
			Id:       f.Id,
			Title:    f.Title,
			ParentId: f.ParentId,
			Children: slices.Clone([]string(f.Children)),
		}
	}
	for _, r := range refs {
		tree.References[r.Id] = &entity.ReferenceNode{
			Id:             r.Id,
			OriginKind:     entity.OriginKind(r.OriginKind),
			OriginId:       r.OriginId,
			Title:          r.Title,
			PreviewKind:    entity.PreviewKind(r.PreviewKind),
			ParentId:       r.ParentId,
			CreatedAt:      r.CreatedAt,
			LastAccessedAt: r.LastAccessedAt,
		}
	}
	return tree
}

func (m *TreeMapper) ToModels(tree *entity.Tree) ([]*model.Folder, []*model.ReferenceNode) {
	folders := make([]*model.Folder, 0, len(tree.Folders))
	for _, f := range tree.Folders {
		children := f.Children
		if children == nil {
			children = []string{}
		}
		folders = append(folders, &model.Folder{
			Id:       f.Id,
			Title:    f.Title,
			ParentId: f.ParentId,
			Children: slices.Clone(children),
		})
	}

	refs := make([]*model.ReferenceNode, 0, len(tree.References))
	for _, r := range tree.References {
		refs = append(refs, &model.ReferenceNode{
			Id:             r.Id,
			OriginKind:     string(r.OriginKind),
			OriginId:       r.OriginId,
			Title:          r.Title,
			PreviewKind:    string(r.PreviewKind),
			ParentId:       r.ParentId,
			CreatedAt:      r.CreatedAt,
			LastAccessedAt: r.LastAccessedAt,
		})
	}
	return folders, refs
}
