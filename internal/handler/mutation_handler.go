package handler

import (
	"context"
	"fmt"

	"notehub-engine/internal/pkg/logger"
	"notehub-engine/internal/service"
	"notehub-engine/pkg/events"
)

// MutationHandler reacts to notices that a document was written outside this
// engine, by an assistant or another client.
type MutationHandler struct {
	noteService service.INoteService
	logger      logger.ILogger
}

func NewMutationHandler(noteService service.INoteService, log logger.ILogger) *MutationHandler {
	return &MutationHandler{noteService: noteService, logger: log}
}

// Handle expects document_id and an optional actor in the payload.
func (h *MutationHandler) Handle(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	id, _ := payload["document_id"].(string)
	if id == "" {
		h.logger.Warn("MutationHandler", "Mutation notice without document_id", map[string]interface{}{
			"type": event.EventType(),
		})
		return nil
	}
	actor, _ := payload["actor"].(string)
	if actor == "" {
		actor = "external"
	}

	if err := h.noteService.HandleExternalMutation(ctx, id, actor); err != nil {
		return fmt.Errorf("handle mutation of %s: %w", id, err)
	}
	return nil
}
