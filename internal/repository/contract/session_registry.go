package contract

import (
	"context"

	"notehub-engine/internal/entity"
)

type SessionStore interface {
	Id() string
	AddContextRef(ctx context.Context, ref entity.ContextRef) error
	ContextRefs() []entity.ContextRef
}

// SessionRegistry enumerates chat sessions. The first id returned by
// GetAllSessionIds is the active session.
type SessionRegistry interface {
	GetAllSessionIds(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (SessionStore, bool)
}
