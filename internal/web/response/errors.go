package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// JSON writes v with the given status
func JSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// RenderError renders a standard error response
func RenderError(w http.ResponseWriter, statusCode int, err error) {
	JSON(w, statusCode, &ErrorResponse{
		Error:   errorCodeFromStatus(statusCode),
		Message: err.Error(),
	})
}

// RenderQueryError renders a query parse or compile failure as a 400
// carrying the error code. Any other error is a 500.
func RenderQueryError(w http.ResponseWriter, err error) {
	var pe *qerrors.ParseError
	if errors.As(err, &pe) {
		details := map[string]any{"position": pe.Position}
		if pe.Near != "" {
			details["near"] = pe.Near
		}
		JSON(w, http.StatusBadRequest, &ErrorResponse{
			Error:   "invalid_query",
			Message: pe.Message,
			Code:    string(pe.Code),
			Details: details,
		})
		return
	}

	var ce *qerrors.CompileError
	if errors.As(err, &ce) {
		JSON(w, http.StatusBadRequest, &ErrorResponse{
			Error:   "untranslatable_query",
			Message: ce.Message,
			Code:    string(ce.Code),
		})
		return
	}

	RenderError(w, http.StatusInternalServerError, err)
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RenderError(w, http.StatusNotFound, fmt.Errorf("%s", message))
}

// RenderMethodNotAllowed renders a 405 Method Not Allowed error
func RenderMethodNotAllowed(w http.ResponseWriter) {
	RenderError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
}

// errorCodeFromStatus maps HTTP status codes to error codes
func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return "error"
	}
}
