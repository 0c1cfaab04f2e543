package dto

type ReorderTabsRequest struct {
	OpenTabs []string `json:"open_tabs" validate:"required"`
}

type ViewResponse struct {
	OpenTabs      []string `json:"open_tabs"`
	ActiveId      *string  `json:"active_id"`
	CanvasNoteId  *string  `json:"canvas_note_id"`
	CanvasHistory []string `json:"canvas_history"`
}
