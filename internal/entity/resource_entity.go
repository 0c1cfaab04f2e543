package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SyncResult is produced when origin content is materialized into the
// resource store. IsNew is false when identical content was already stored.
type SyncResult struct {
	ResourceId  string `json:"resource_id"`
	ContentHash string `json:"content_hash"`
	IsNew       bool   `json:"is_new"`
}

// ContextRef is what a chat session holds to use a resource as context.
type ContextRef struct {
	ResourceId  string `json:"resource_id"`
	ContentHash string `json:"content_hash"`
	TypeId      string `json:"type_id"`
}

type ResourceInput struct {
	TypeId   string
	SourceId string
	Title    string
	Content  []byte
}

type Resource struct {
	Id          string
	ContentHash string
	TypeId      string
	SourceId    string
	Title       string
	Content     []byte
	CreatedAt   time.Time
}

var typeIdByKind = map[OriginKind]string{
	OriginDocument: "note",
	OriginTextbook: "textbook",
	OriginExam:     "exam_session",
	OriginFile:     "file",
}

// TypeIdForKind maps an origin kind to the chat context type id. Unknown
// kinds are treated as generic files.
func TypeIdForKind(kind OriginKind) string {
	if id, ok := typeIdByKind[kind]; ok {
		return id
	}
	return typeIdByKind[OriginFile]
}

type ChatSession struct {
	Id          string
	Title       string
	ContextRefs []ContextRef
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// ContentHash is the dedup key of the resource store.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
