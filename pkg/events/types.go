package events

// Event names and their payload keys. Payload values are JSON-compatible.
const (
	// document_id
	ContentChanged = "document.content_changed"
	// document_id, title
	DocumentCreated = "document.created"
	// document_id
	DocumentDeleted = "document.deleted"
	// document_id, expected_revision, current_revision
	SaveConflict = "document.save_conflict"

	// document_id, status ("busy" | "idle"), actor
	AIStatusChanged = "ai.status_changed"

	// document_id (may be nil)
	CanvasNoteChanged = "canvas.note_changed"
	// document_id
	CanvasOpened = "canvas.opened"
	// document_id
	CanvasClosed = "canvas.closed"

	// open_tabs, active_id
	TabsChanged = "view.tabs_changed"

	// seq, query, count
	SearchCompleted = "search.completed"

	// reference_id, origin_kind, origin_id
	ReferenceInvalidated = "reference.invalidated"
	// reference_id
	ReferenceRemoved = "reference.removed"

	// session_id, resource_id, content_hash, type_id, is_new
	ContextAttached = "chat.context_attached"

	// message, document_id (optional)
	Warning = "engine.warning"
)

// AllTypes lists every event name, for consumers that relay the whole stream.
var AllTypes = []string{
	ContentChanged,
	DocumentCreated,
	DocumentDeleted,
	SaveConflict,
	AIStatusChanged,
	CanvasNoteChanged,
	CanvasOpened,
	CanvasClosed,
	TabsChanged,
	SearchCompleted,
	ReferenceInvalidated,
	ReferenceRemoved,
	ContextAttached,
	Warning,
}
