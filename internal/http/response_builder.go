package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetweek/internal/core"
	"budgetweek/internal/log"
	"budgetweek/internal/services"
	"budgetweek/internal/storage"
)

// JSONResponseBuilder provides a fluent API for writing JSON responses.
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

func (b *JSONResponseBuilder) Header(key, value string) *JSONResponseBuilder {
	b.headers[key] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends headers, status and the encoded body. A nil body writes no
// content.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) error {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	return json.NewEncoder(w).Encode(b.body)
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

var (
	notFoundErrors = []error{
		services.ErrPayableNotFound,
		services.ErrTransactionNotFound,
		storage.ErrNotFound,
	}
	conflictErrors = []error{
		services.ErrPayableCompleted,
		services.ErrNoPaymentDue,
		services.ErrInvalidTransition,
	}
	validationErrors = []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrEmptyName,
		core.ErrEmptyCategory,
		core.ErrInvalidType,
		core.ErrInvalidFrequency,
		core.ErrInvalidPeriod,
		services.ErrDayNotInWeek,
		services.ErrUnknownGoalType,
		services.ErrUnknownAction,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusFor maps an error to its HTTP status and machine-readable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case isAny(err, notFoundErrors):
		return http.StatusNotFound, "not_found"
	case isAny(err, conflictErrors):
		return http.StatusConflict, "conflict"
	case isAny(err, validationErrors):
		return http.StatusUnprocessableEntity, "validation"
	}
	return http.StatusInternalServerError, "internal"
}

// writeError sends err as a JSON error. Internal errors are logged and their
// message withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err.Error())
		msg = "internal error"
	}
	NewJSONResponse().
		Status(status).
		Body(errorResponse{Error: msg, Code: code, RequestID: log.RequestID(r.Context())}).
		Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}
