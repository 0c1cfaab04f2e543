package serverutils

import (
	"errors"

	"notehub-engine/internal/entity"

	"github.com/gofiber/fiber/v2"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{entity.ErrNotFound, fiber.StatusNotFound},
	{entity.ErrNodeNotFound, fiber.StatusNotFound},
	{entity.ErrFolderNotFound, fiber.StatusNotFound},
	{entity.ErrSaveConflict, fiber.StatusConflict},
	{entity.ErrRevisionConflict, fiber.StatusConflict},
	{entity.ErrContentNotLoaded, fiber.StatusConflict},
	{entity.ErrFolderNotEmpty, fiber.StatusConflict},
	{entity.ErrDuplicateReference, fiber.StatusConflict},
	{entity.ErrReferenceInvalid, fiber.StatusGone},
	{entity.ErrNoActiveSession, fiber.StatusPreconditionFailed},
	{entity.ErrInvalidTabOrder, fiber.StatusBadRequest},
	{entity.ErrMaintenanceMode, fiber.StatusServiceUnavailable},
	{entity.ErrSaveFailed, fiber.StatusBadGateway},
}

// StatusFor maps an engine error to an HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return fiber.StatusInternalServerError
}

// ErrorHandlerMiddleware turns handler errors into the standard error body.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status := StatusFor(err)
		return ctx.Status(status).JSON(ErrorResponse(status, err.Error()))
	}
}
