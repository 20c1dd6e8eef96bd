package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"complianceapi/internal/expiry"
	"complianceapi/internal/http/middleware"
	"complianceapi/internal/registry"
	"complianceapi/internal/repository"
	"complianceapi/internal/service"
	"complianceapi/internal/verification"
)

// errorPayload is the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking
// internal details.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// writeDomainError maps the engine's error taxonomy onto HTTP responses.
// Validation errors carry their own message so the caller can correct the
// input; anything unrecognized collapses to a generic 500.
func writeDomainError(c *fiber.Ctx, err error) error {
	var (
		missingErr    *service.MissingFieldError
		extensionErr  *registry.ExtensionError
		unknownErr    *registry.UnknownTypeError
		transitionErr *verification.InvalidTransitionError
	)
	switch {
	case errors.As(err, &missingErr):
		return writeError(c, fiber.StatusBadRequest, "MISSING_REQUIRED_FIELD", missingErr.Error())
	case errors.As(err, &extensionErr):
		return writeError(c, fiber.StatusBadRequest, "INVALID_EXTENSION", extensionErr.Error())
	case errors.As(err, &unknownErr):
		return writeError(c, fiber.StatusBadRequest, "UNKNOWN_DOCUMENT_TYPE", unknownErr.Error())
	case errors.Is(err, verification.ErrReviewerRequired),
		errors.Is(err, verification.ErrReasonRequired),
		errors.Is(err, expiry.ErrExpiryMissing):
		return writeError(c, fiber.StatusBadRequest, "MISSING_REQUIRED_FIELD", err.Error())
	case errors.Is(err, verification.ErrExpiryPassed):
		return writeError(c, fiber.StatusConflict, "EXPIRY_PASSED", err.Error())
	case errors.As(err, &transitionErr):
		return writeError(c, fiber.StatusConflict, "INVALID_TRANSITION", transitionErr.Error())
	case errors.Is(err, repository.ErrStaleRecord):
		return writeError(c, fiber.StatusConflict, "STALE_RECORD",
			"record was modified concurrently, re-fetch and retry")
	case errors.Is(err, repository.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "record not found")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler is the global Fiber error handler; it standardizes responses
// for errors that escaped the handlers.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
