// Package response writes JSON and RFC 7807 problem responses.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/supportai/tickethub/internal/huberrors"
)

// ErrorDetail represents a single error detail in RFC 7807 Problem Details
type ErrorDetail struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// ProblemDetails represents an RFC 7807 Problem Details error response
type ProblemDetails struct {
	Type     string        `json:"type,omitempty"`
	Title    string        `json:"title"`
	Status   int           `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Instance string        `json:"instance,omitempty"`
	Code     string        `json:"code,omitempty"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
}

// RespondProblem writes a fully populated problem document.
func RespondProblem(w http.ResponseWriter, problem ProblemDetails) {
	if problem.Type == "" {
		problem.Type = "about:blank"
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// RespondError writes an RFC 7807 Problem Details error response
func RespondError(w http.ResponseWriter, statusCode int, title, detail string) {
	RespondProblem(w, ProblemDetails{Title: title, Status: statusCode, Detail: detail})
}

// RespondBadRequest writes a 400 Bad Request error response
func RespondBadRequest(w http.ResponseWriter, detail string) {
	RespondProblem(w, ProblemDetails{
		Title: "Bad Request", Status: http.StatusBadRequest, Detail: detail, Code: huberrors.CodeValidation,
	})
}

// RespondNotFound writes a 404 Not Found error response
func RespondNotFound(w http.ResponseWriter, detail string) {
	RespondProblem(w, ProblemDetails{
		Title: "Not Found", Status: http.StatusNotFound, Detail: detail, Code: huberrors.CodeNotFound,
	})
}

// RespondInternalServerError writes a 500 Internal Server Error response
func RespondInternalServerError(w http.ResponseWriter) {
	RespondProblem(w, ProblemDetails{
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: "An unexpected error occurred",
		Code:   huberrors.CodeInternal,
	})
}

// RespondServiceUnavailable writes a 503 Service Unavailable error response
func RespondServiceUnavailable(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusServiceUnavailable, "Service Unavailable", detail)
}

// retryAfterSeconds is sent with 503 responses caused by transient store errors.
const retryAfterSeconds = "1"

// RespondServiceError maps a service error to a problem response and logs it with its code
// and originating operation. Transient store errors become a 503 the client may retry; unmapped
// errors become a 500. Neither exposes the underlying error.
func RespondServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	code := huberrors.Code(err)

	switch {
	case errors.Is(err, huberrors.ErrValidation):
		slog.InfoContext(r.Context(), "request rejected", "code", code, "operation", operation, "error", err)
		RespondBadRequest(w, err.Error())
	case errors.Is(err, huberrors.ErrNotFound):
		slog.InfoContext(r.Context(), "resource not found", "code", code, "operation", operation, "error", err)
		RespondNotFound(w, err.Error())
	case errors.Is(err, huberrors.ErrTransient):
		slog.WarnContext(r.Context(), "request failed on transient store error",
			"code", code, "operation", operation, "error", err)
		w.Header().Set("Retry-After", retryAfterSeconds)
		RespondProblem(w, ProblemDetails{
			Title:  "Service Unavailable",
			Status: http.StatusServiceUnavailable,
			Detail: "The service is temporarily unavailable, please retry",
			Code:   code,
		})
	default:
		slog.ErrorContext(r.Context(), "request failed", "code", code, "operation", operation, "error", err)
		RespondInternalServerError(w)
	}
}

// RespondJSON writes a JSON response directly without wrapping
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}
