package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopfloor/orderdesk/internal/repository"
	"github.com/shopfloor/orderdesk/internal/validation"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSONResponse writes a JSON response with the given status code and data
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteErrorResponse writes an error response with the given status code and message
func WriteErrorResponse(w http.ResponseWriter, statusCode int, err, message string) {
	response := ErrorResponse{
		Error:   err,
		Message: message,
	}
	WriteJSONResponse(w, statusCode, response)
}

// writeRequestError writes a 400 response carrying per-field details.
func writeRequestError(w http.ResponseWriter, reqErr *validation.RequestError) {
	WriteJSONResponse(w, http.StatusBadRequest, ErrorResponse{
		Error:  reqErr.Message,
		Fields: reqErr.Fields,
	})
}

// writeStoreError maps repository errors onto HTTP statuses: NotFoundError to
// 404, ConflictError to 409, anything else to an opaque 500.
func writeStoreError(w http.ResponseWriter, logger *slog.Logger, err error, operation string) {
	var notFound *repository.NotFoundError
	if errors.As(err, &notFound) {
		WriteErrorResponse(w, http.StatusNotFound, notFound.Error(), "")
		return
	}

	var conflict *repository.ConflictError
	if errors.As(err, &conflict) {
		WriteErrorResponse(w, http.StatusConflict, conflict.Error(), "")
		return
	}

	logger.Error(operation+"_failed", "error", err)
	WriteErrorResponse(w, http.StatusInternalServerError, "internal error", "an internal error occurred while processing your request")
}
