// Package http provides the JSON API in front of the expense service.
//
// This file implements the Builder Pattern for constructing JSON responses
// so every handler answers with the same envelope and headers.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"spendtrack/internal/core"
	"spendtrack/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body sends none.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Failed to encode response", log.FieldComponent, log.ComponentHTTP, log.FieldError, err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
}

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message, Code: code})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

// ConfirmationRequired answers a mutation that was held back at a budget
// warning. The client resubmits with ?confirm=true to go ahead.
func ConfirmationRequired(title, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusConflict).Body(map[string]string{
		"status":  "confirmation_required",
		"title":   title,
		"message": message,
	})
}

// errorFor maps service errors onto HTTP responses. Validation problems are
// reported verbatim; storage failures are logged and hidden.
func errorFor(r *http.Request, err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, errBadRequest):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrValidation):
		return ErrorResponse(http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrPersistence):
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Storage failure", log.FieldError, err.Error())
		return ErrorResponse(http.StatusServiceUnavailable, "persistence_error", "storage is unavailable, the change was not saved")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Unexpected error", log.FieldError, err.Error())
		return ErrorResponse(http.StatusInternalServerError, "internal_error", "internal error")
	}
}
