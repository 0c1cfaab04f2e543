package contract

import (
	"context"

	"notehub-engine/internal/entity"
)

// DocumentStore is the remote, path-addressed document store. Paths are
// built with entity.PathFor for every origin kind.
//
// Get returns (nil, nil) when nothing lives at path. Update returns an
// *entity.ConflictError when ifMatch does not equal the stored revision; an
// empty ifMatch skips the precondition.
type DocumentStore interface {
	Get(ctx context.Context, path string) (*entity.Document, error)
	GetContent(ctx context.Context, path string) (string, error)
	List(ctx context.Context, pathPrefix string, filter entity.DocumentFilter) ([]*entity.Document, error)
	Create(ctx context.Context, path string, spec entity.CreateSpec) (*entity.Document, error)
	Update(ctx context.Context, path string, content string, kind entity.ContentKind, ifMatch string) (*entity.Document, error)
	SetMetadata(ctx context.Context, path string, fields entity.MetadataFields) (*entity.Document, error)
	Delete(ctx context.Context, path string) error
}
