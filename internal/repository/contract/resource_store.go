package contract

import (
	"context"

	"notehub-engine/internal/entity"
)

// ResourceStore is content-addressed: putting bytes that are already stored
// returns the existing resource with IsNew=false.
type ResourceStore interface {
	Put(ctx context.Context, input entity.ResourceInput) (*entity.SyncResult, error)
	Get(ctx context.Context, id string) (*entity.Resource, error)
}
