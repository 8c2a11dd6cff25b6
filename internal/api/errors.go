package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	domainerrors "github.com/platefulapp/plateful-server/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with the envelope error shape.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status      int
	Kind        string            `json:"error" doc:"Stable machine-readable error kind"`
	Message     string            `json:"message" doc:"Human-readable error message"`
	FieldErrors map[string]string `json:"field_errors,omitzero" doc:"Per-field validation messages"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		// Domain errors carry their own status and kind.
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return apiErrorFrom(domainErr)
			}
		}

		// Huma's own schema validation reports 422 with per-field details;
		// fold those into the 400 validation shape the clients expect.
		if status == http.StatusUnprocessableEntity {
			fieldErrors := make(map[string]string)
			for _, err := range errs {
				var detailer huma.ErrorDetailer
				if errors.As(err, &detailer) {
					detail := detailer.ErrorDetail()
					fieldErrors[fieldNameFromLocation(detail.Location)] = detail.Message
				}
			}
			apiErr := &APIError{
				status:  http.StatusBadRequest,
				Kind:    domainerrors.CodeValidation.Kind(),
				Message: "validation failed",
			}
			if len(fieldErrors) > 0 {
				apiErr.FieldErrors = fieldErrors
			}
			return apiErr
		}

		return &APIError{
			status:  status,
			Kind:    kindForStatus(status),
			Message: message,
		}
	}
}

// apiErrorFrom converts a domain error into the HTTP error shape.
func apiErrorFrom(err *domainerrors.Error) *APIError {
	apiErr := &APIError{
		status:  err.HTTPStatus(),
		Kind:    err.Code.Kind(),
		Message: err.Message,
	}
	if fields, ok := err.Details.(map[string]string); ok {
		apiErr.FieldErrors = fields
	}
	return apiErr
}

// fieldNameFromLocation strips huma's location prefix ("body.title" -> "title").
func fieldNameFromLocation(location string) string {
	if i := strings.LastIndexByte(location, '.'); i >= 0 {
		return location[i+1:]
	}
	return location
}

// kindForStatus maps plain HTTP status codes to envelope error kinds.
func kindForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domainerrors.CodeValidation.Kind()
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized.Kind()
	case http.StatusForbidden:
		return domainerrors.CodeForbidden.Kind()
	case http.StatusNotFound:
		return domainerrors.CodeNotFound.Kind()
	case http.StatusConflict:
		return domainerrors.CodeConflict.Kind()
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited.Kind()
	default:
		return domainerrors.CodeInternal.Kind()
	}
}
