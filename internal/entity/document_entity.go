package entity

import (
	"slices"
	"strings"
	"time"
)

// ContentKind tells the store how the content payload is encoded.
type ContentKind string

const (
	ContentKindMarkdown ContentKind = "markdown"
	ContentKindLexical  ContentKind = "lexical"
)

// Asset maps a stable relative path stored in content to the ephemeral
// preview URL the editor renders it with.
type Asset struct {
	RelativePath string `json:"relative_path"`
	PreviewURL   string `json:"preview_url"`
}

type Document struct {
	Id         string
	Title      string
	Content    string
	Tags       []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	IsFavorite bool
	Revision   string
	Assets     []Asset
}

// Clone returns a deep copy so cached documents never share slices with callers.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Tags = slices.Clone(d.Tags)
	c.Assets = slices.Clone(d.Assets)
	return &c
}

func (d *Document) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

// DocumentFilter narrows a List call.
type DocumentFilter struct {
	Query         string
	Tags          []string
	FavoritesOnly bool
}

func (f DocumentFilter) IsEmpty() bool {
	return strings.TrimSpace(f.Query) == "" && len(f.Tags) == 0 && !f.FavoritesOnly
}

// CreateSpec describes a document to create in the remote store.
type CreateSpec struct {
	Title   string
	Content string
	Kind    ContentKind
	Tags    []string
}

// MetadataFields is a partial metadata update; nil fields are left untouched.
type MetadataFields struct {
	Title      *string
	Tags       *[]string
	IsFavorite *bool
	Assets     *[]Asset
}

// PathFor builds the store path for any origin id.
func PathFor(id string) string {
	return "/" + strings.TrimPrefix(id, "/")
}

// IdFromPath is the inverse of PathFor.
func IdFromPath(path string) string {
	return strings.TrimPrefix(path, "/")
}

// DocState is the per-document load/save lifecycle.
type DocState string

const (
	DocStateUnloaded DocState = "unloaded"
	DocStateLoading  DocState = "loading"
	DocStateLoaded   DocState = "loaded"
	DocStateSaving   DocState = "saving"
	DocStateConflict DocState = "conflict"
)
