package specification

import (
	"encoding/json"
	"strings"

	"gorm.io/gorm"
)

// ByPathPrefix keeps documents whose store path ("/" + id) starts with Prefix.
type ByPathPrefix struct {
	Prefix string
}

func (s ByPathPrefix) Apply(db *gorm.DB) *gorm.DB {
	prefix := strings.TrimPrefix(s.Prefix, "/")
	if prefix == "" {
		return db
	}
	return db.Where("id LIKE ?", escapeLike(prefix)+"%")
}

// HasAllTags uses jsonb containment, so every tag must be present.
type HasAllTags struct {
	Tags []string
}

func (s HasAllTags) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Tags) == 0 {
		return db
	}
	raw, _ := json.Marshal(s.Tags)
	return db.Where("tags @> ?::jsonb", string(raw))
}

type FavoritesOnly struct{}

func (s FavoritesOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_favorite = ?", true)
}

// TitleOrContent matches the query case-insensitively in title or content.
type TitleOrContent struct {
	Query string
}

func (s TitleOrContent) Apply(db *gorm.DB) *gorm.DB {
	q := strings.TrimSpace(s.Query)
	if q == "" {
		return db
	}
	pattern := "%" + escapeLike(q) + "%"
	return db.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
}

// MetadataOnly skips the content column.
type MetadataOnly struct{}

func (s MetadataOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Omit("content")
}

type ByContentHash struct {
	Hash string
}

func (s ByContentHash) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_hash = ?", s.Hash)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
