package contract

import (
	"context"

	"notehub-engine/internal/entity"
)

// TreeRepository persists the folder/reference tree as a whole.
type TreeRepository interface {
	Load(ctx context.Context) (*entity.Tree, error)
	Save(ctx context.Context, tree *entity.Tree) error
}
