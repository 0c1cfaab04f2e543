package dto

import (
	"time"

	"notehub-engine/internal/entity"
)

type CreateDocumentRequest struct {
	Title    string   `json:"title" validate:"max=255"`
	Content  string   `json:"content"`
	ParentId string   `json:"parent_id"`
	Tags     []string `json:"tags" validate:"omitempty,dive,required,max=64"`
}

type CreateDocumentResponse struct {
	Id string `json:"id"`
}

type SaveDocumentRequest struct {
	Id      string
	Content string  `json:"content"`
	Title   *string `json:"title" validate:"omitempty,max=255"`
}

type SaveDocumentResponse struct {
	Id           string    `json:"id"`
	Revision     string    `json:"revision"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updated_at"`
	TitleWarning string    `json:"title_warning,omitempty"`
}

type RenameDocumentRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type FavoriteRequest struct {
	IsFavorite bool `json:"is_favorite"`
}

type MoveDocumentRequest struct {
	ParentId string `json:"parent_id"`
	Index    int    `json:"index"`
}

type AssetResponse struct {
	RelativePath string `json:"relative_path"`
	PreviewURL   string `json:"preview_url"`
}

type DocumentResponse struct {
	Id         string          `json:"id"`
	Title      string          `json:"title"`
	Content    string          `json:"content,omitempty"`
	Tags       []string        `json:"tags"`
	IsFavorite bool            `json:"is_favorite"`
	Revision   string          `json:"revision"`
	Assets     []AssetResponse `json:"assets,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func NewDocumentResponse(doc *entity.Document) *DocumentResponse {
	resp := &DocumentResponse{
		Id:         doc.Id,
		Title:      doc.Title,
		Content:    doc.Content,
		Tags:       doc.Tags,
		IsFavorite: doc.IsFavorite,
		Revision:   doc.Revision,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	for _, a := range doc.Assets {
		resp.Assets = append(resp.Assets, AssetResponse{RelativePath: a.RelativePath, PreviewURL: a.PreviewURL})
	}
	return resp
}

func NewDocumentListResponse(docs []*entity.Document) []*DocumentResponse {
	out := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, NewDocumentResponse(d))
	}
	return out
}

type SearchResponse struct {
	Seq     uint64              `json:"seq"`
	Applied bool                `json:"applied"`
	Results []*DocumentResponse `json:"results"`
}
