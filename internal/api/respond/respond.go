package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pathakanu/myAgenda/internal/model"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	// ConflictingID names the appointment in the way on 409 responses.
	ConflictingID    string `json:"conflicting_id,omitempty"`
	ConflictingTitle string `json:"conflicting_title,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case model.IsValidationError(err), model.IsTemporalError(err):
		return http.StatusBadRequest
	case model.IsNotFoundError(err):
		return http.StatusNotFound
	case model.IsConflictError(err):
		return http.StatusConflict
	case model.IsAuthorizationError(err):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteDomainError writes err with the status its type maps to. Internal
// errors are logged and their detail is not echoed to the client.
func WriteDomainError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Stack().Err(err).Msg("Request failed")
		WriteError(w, status, "internal error")
		return
	}

	resp := ErrorResponse{Error: http.StatusText(status), Code: status, Message: err.Error()}
	var ce model.ConflictError
	if errors.As(err, &ce) {
		resp.ConflictingID = ce.ConflictingID
		resp.ConflictingTitle = ce.ConflictingTitle
	}
	WriteJSON(w, status, resp)
}
