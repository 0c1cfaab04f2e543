package memory

import (
	"context"
	"sync"

	"notehub-engine/internal/entity"
	"notehub-engine/internal/repository/contract"
)

var _ contract.TreeRepository = (*TreeRepository)(nil)

type TreeRepository struct {
	mu    sync.Mutex
	tree  *entity.Tree
	saves int
	err   error
}

func NewTreeRepository() *TreeRepository {
	return &TreeRepository{tree: entity.NewTree()}
}

func (r *TreeRepository) Load(_ context.Context) (*entity.Tree, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.Clone(), nil
}

func (r *TreeRepository) Save(_ context.Context, tree *entity.Tree) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.tree = tree.Clone()
	r.saves++
	return nil
}

// FailSaves makes every following Save return err; nil restores normal behavior.
func (r *TreeRepository) FailSaves(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *TreeRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}
