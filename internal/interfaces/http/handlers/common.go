// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/olfacto/scentinel/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError maps application errors to HTTP status codes. Internal
// failures are masked; the full error is already in the server log.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    errors.GetCode(err).String(),
			Message: err.Error(),
		})
	case errors.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Code:    errors.GetCode(err).String(),
			Message: err.Error(),
		})
	case errors.IsCode(err, errors.CodeServiceUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Code:    errors.CodeServiceUnavailable.String(),
			Message: "service unavailable",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    errors.CodeInternal.String(),
			Message: "internal server error",
		})
	}
}

// queryInt parses an integer query parameter, returning fallback when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
