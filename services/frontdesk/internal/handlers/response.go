package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeRoomUnavailable = "ROOM_UNAVAILABLE"
	CodeInvalidState    = "INVALID_STATE"
	CodeConflict        = "CONFLICT"
	CodeInternalError   = "INTERNAL_ERROR"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

// writeServiceError maps domain error kinds to HTTP. Anything else is an
// infrastructure failure: it is logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	msg := domain.MessageOf(err)
	switch domain.KindOf(err) {
	case domain.KindValidation:
		writeError(w, http.StatusBadRequest, msg, CodeValidation)
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, msg, CodeNotFound)
	case domain.KindRoomUnavailable:
		writeError(w, http.StatusConflict, msg, CodeRoomUnavailable)
	case domain.KindInvalidState:
		writeError(w, http.StatusConflict, msg, CodeInvalidState)
	case domain.KindConflict:
		writeError(w, http.StatusConflict, msg, CodeConflict)
	case domain.KindUnauthorized:
		writeError(w, http.StatusUnauthorized, msg, CodeUnauthorized)
	case domain.KindForbidden:
		writeError(w, http.StatusForbidden, msg, CodeForbidden)
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Something went wrong, please try again", CodeInternalError)
	}
}
