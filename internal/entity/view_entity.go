package entity

const CanvasHistoryLimit = 10

// ViewState is the durable part of the view: what gets written to the
// preference store.
type ViewState struct {
	OpenTabs []string `json:"openTabs"`
	ActiveId *string  `json:"activeId"`
}

type ViewSnapshot struct {
	OpenTabs      []string `json:"open_tabs"`
	ActiveId      *string  `json:"active_id"`
	CanvasNoteId  *string  `json:"canvas_note_id"`
	CanvasHistory []string `json:"canvas_history"`
}
