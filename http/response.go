package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sagarc03/sendfile"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	e := sendfile.AsError(err)
	if e.Status >= http.StatusInternalServerError {
		slog.Error("request error", "error", err)
	}

	code, message := describe(e)
	WriteError(w, e.Status, code, message)
}

func describe(e *sendfile.Error) (code, message string) {
	switch {
	case errors.Is(e, sendfile.ErrBadRequest):
		return "invalid_path", "Invalid path"
	case errors.Is(e, sendfile.ErrForbidden):
		return "forbidden", "Access to this path is forbidden"
	case errors.Is(e, sendfile.ErrNotFound):
		return "not_found", "File not found"
	case errors.Is(e, sendfile.ErrPreconditionFailed):
		return "precondition_failed", "Precondition failed"
	case errors.Is(e, sendfile.ErrRangeNotSatisfiable):
		return "range_not_satisfiable", "Requested range not satisfiable"
	default:
		return "internal_error", "Internal server error"
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// ErrorFormat selects how send errors are rendered.
type ErrorFormat string

const (
	ErrorFormatText ErrorFormat = "text"
	ErrorFormatJSON ErrorFormat = "json"
	ErrorFormatHTML ErrorFormat = "html"
)

// ErrorHook returns an OnError hook rendering errors in format. Text
// returns nil so the sender's own plain-text response is used.
func ErrorHook(format ErrorFormat) (func(http.ResponseWriter, *http.Request, *sendfile.Error), error) {
	switch format {
	case ErrorFormatText, "":
		return nil, nil
	case ErrorFormatJSON:
		return jsonError, nil
	case ErrorFormatHTML:
		return htmlError, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownErrorFormat, format)
	}
}

func jsonError(w http.ResponseWriter, r *http.Request, e *sendfile.Error) {
	if e.HeadersSent {
		slog.Error("response truncated", "path", r.URL.Path, "error", e)
		return
	}
	sendfile.ResetHeader(w.Header(), e)
	HandleError(w, e)
}

func htmlError(w http.ResponseWriter, r *http.Request, e *sendfile.Error) {
	if e.HeadersSent {
		slog.Error("response truncated", "path", r.URL.Path, "error", e)
		return
	}
	if e.Status >= http.StatusInternalServerError {
		slog.Error("request error", "error", e)
	}
	sendfile.ResetHeader(w.Header(), e)
	writeErrorPage(w, e.Status)
}
