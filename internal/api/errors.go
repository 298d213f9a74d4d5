package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/darvell/inkmill/internal/api/shared"
	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/generation"
	"github.com/darvell/inkmill/internal/governor"
	"github.com/darvell/inkmill/internal/platform/openai"
	"github.com/darvell/inkmill/internal/service"
	"github.com/darvell/inkmill/internal/store"
	"github.com/darvell/inkmill/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes based on
// the error type. Unknown errors become 500 so nothing internal leaks.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidArtifact),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrNoArtifactTypes),
		errors.Is(err, task.ErrEmptySubjectID),
		errors.Is(err, task.ErrInvalidTaskType):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Capacity errors
	case errors.Is(err, service.ErrBusy),
		errors.Is(err, governor.ErrResourceExceeded):
		return http.StatusTooManyRequests

	// Upstream provider errors
	case errors.Is(err, openai.ErrAPIFailure),
		errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrInvalidResponse):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for the error type.
// Raw error strings are never exposed.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrSubjectNotFound):
		return "Subject not found"

	case errors.Is(err, store.ErrArtifactNotFound):
		return "Artifact not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, service.ErrEmptyContent):
		return "Content cannot be empty"

	case errors.Is(err, service.ErrNoArtifactTypes):
		return "No artifact types requested"

	case errors.Is(err, domain.ErrInvalidArtifact),
		errors.Is(err, task.ErrInvalidTaskType):
		return "Invalid artifact type"

	case errors.Is(err, task.ErrEmptySubjectID):
		return "Subject ID cannot be empty"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, service.ErrBusy),
		errors.Is(err, governor.ErrResourceExceeded):
		return "Engine is at capacity, try again later"

	case errors.Is(err, openai.ErrAPIFailure),
		errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrInvalidResponse):
		return "Content generation failed"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps the error to a status code and writes a sanitized
// response. An empty userMessage falls back to the type-derived message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError turns a validator error into a user-friendly
// message without echoing submitted values back.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Format: "Key: 'AugmentRequest.Content' Error:Field validation for 'Content' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "dive":
		return "invalid list entry"
	default:
		return "validation failed"
	}
}
