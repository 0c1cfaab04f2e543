package implementation

import (
	"context"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/mapper"
	"notehub-engine/internal/model"
	"notehub-engine/internal/repository/contract"
	"notehub-engine/internal/repository/scope"

	"gorm.io/gorm"
)

type TreeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TreeMapper
}

func NewTreeRepository(db *gorm.DB) contract.TreeRepository {
	return &TreeRepositoryImpl{
		db:     db,
		mapper: mapper.NewTreeMapper(),
	}
}

func (r *TreeRepositoryImpl) Load(ctx context.Context) (*entity.Tree, error) {
	var folders []*model.Folder
	if err := r.db.WithContext(ctx).Find(&folders).Error; err != nil {
		return nil, err
	}
	var refs []*model.ReferenceNode
	if err := r.db.WithContext(ctx).Scopes(scope.OrderByCreatedAsc).Find(&refs).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(folders, refs), nil
}

// Save replaces the stored tree with tree in one transaction.
func (r *TreeRepositoryImpl) Save(ctx context.Context, tree *entity.Tree) error {
	folders, refs := r.mapper.ToModels(tree)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.ReferenceNode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.Folder{}).Error; err != nil {
			return err
		}
		if len(folders) > 0 {
			if err := tx.CreateInBatches(folders, 200).Error; err != nil {
				return err
			}
		}
		if len(refs) > 0 {
			if err := tx.CreateInBatches(refs, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
