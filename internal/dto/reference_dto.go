package dto

import (
	"time"

	"notehub-engine/internal/entity"
)

type AddReferenceRequest struct {
	OriginKind  string `json:"origin_kind" validate:"required,oneof=note textbook exam file"`
	OriginId    string `json:"origin_id" validate:"required"`
	Title       string `json:"title"`
	PreviewKind string `json:"preview_kind" validate:"omitempty,oneof=none pdf markdown image exam"`
	ParentId    string `json:"parent_id"`
}

type AddReferenceResponse struct {
	Id string `json:"id"`
}

type ReferenceResponse struct {
	Id             string    `json:"id"`
	OriginKind     string    `json:"origin_kind"`
	OriginId       string    `json:"origin_id"`
	Title          string    `json:"title"`
	PreviewKind    string    `json:"preview_kind"`
	ParentId       string    `json:"parent_id"`
	IsInvalid      string    `json:"is_invalid"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

func NewReferenceResponse(node *entity.ReferenceNode, invalid entity.Tristate) *ReferenceResponse {
	return &ReferenceResponse{
		Id:             node.Id,
		OriginKind:     string(node.OriginKind),
		OriginId:       node.OriginId,
		Title:          node.Title,
		PreviewKind:    string(node.PreviewKind),
		ParentId:       node.ParentId,
		IsInvalid:      invalid.String(),
		CreatedAt:      node.CreatedAt,
		LastAccessedAt: node.LastAccessedAt,
	}
}

type ValidateReferencesRequest struct {
	Ids []string `json:"ids" validate:"required,min=1"`
}

type ValidationResponse struct {
	Id    string `json:"id"`
	Valid bool   `json:"valid"`
}

type CleanupResponse struct {
	Removed int `json:"removed"`
}

type RefreshTitleResponse struct {
	Title string `json:"title"`
}

type ChatReferenceResponse struct {
	SessionId   string `json:"session_id"`
	ResourceId  string `json:"resource_id"`
	ContentHash string `json:"content_hash"`
	TypeId      string `json:"type_id"`
	IsNew       bool   `json:"is_new"`
	Resources   int    `json:"resources"`
}

type RenameTagRequest struct {
	To            string `json:"to" validate:"required,max=64"`
	HaltOnFailure bool   `json:"halt_on_failure"`
}

type BatchFailureResponse struct {
	Id    string `json:"id"`
	Error string `json:"error"`
}

type BatchResponse struct {
	Succeeded []string               `json:"succeeded"`
	Failed    []BatchFailureResponse `json:"failed"`
	Skipped   []string               `json:"skipped"`
}
