package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the target document id does not resolve.
	ErrNotFound = errors.New("document not found")

	// ErrContentNotLoaded is returned when a save is attempted before the
	// document content has been loaded.
	ErrContentNotLoaded = errors.New("document content not loaded")

	// ErrSaveConflict means the origin changed since the content was loaded.
	ErrSaveConflict = errors.New("save conflict: document changed remotely")

	ErrSaveFailed = errors.New("save failed")

	// ErrValidationFailed marks an origin check that errored. It is recorded
	// as invalid and never returned from validation calls.
	ErrValidationFailed = errors.New("reference validation failed")

	ErrNoActiveSession  = errors.New("no active chat session")
	ErrNodeNotFound     = errors.New("node not found")
	ErrReferenceInvalid = errors.New("cannot reference: origin no longer exists")

	ErrMaintenanceMode  = errors.New("maintenance mode is enabled")
	ErrInvalidTabOrder  = errors.New("tab order is not a permutation of open tabs")
	ErrFolderNotFound   = errors.New("folder not found")
	ErrFolderNotEmpty   = errors.New("folder is not empty")

	// ErrDuplicateReference means the target folder already holds a node
	// for the same origin.
	ErrDuplicateReference = errors.New("folder already references this origin")
	ErrRevisionConflict = errors.New("revision conflict")
)

// ConflictError is returned by document stores when an update's revision
// precondition does not match the stored revision.
type ConflictError struct {
	Path             string
	ExpectedRevision string
	CurrentRevision  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("revision conflict on %s: expected %s, current %s", e.Path, e.ExpectedRevision, e.CurrentRevision)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrRevisionConflict
}
