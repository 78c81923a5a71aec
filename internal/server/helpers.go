package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/optifolio/internal/common"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 2 << 20

// Error codes returned alongside error messages
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeUpstream   = "upstream_unavailable"
	CodeConflict   = "conflict"
	CodeInternal   = "internal_error"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// isJSONArray reports whether raw holds a JSON array.
func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// writeServiceError maps service errors onto HTTP statuses. Messages of
// unclassified errors are only surfaced outside production.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), CodeValidation)
	case errors.Is(err, common.ErrNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), CodeNotFound)
	case errors.Is(err, common.ErrUpstreamUnavailable):
		s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Upstream service unavailable")
		WriteErrorWithCode(w, http.StatusBadGateway, "Rebalancing service is currently unavailable, please try again later", CodeUpstream)
	case errors.Is(err, common.ErrConflict):
		WriteErrorWithCode(w, http.StatusConflict, "Portfolio was modified by another request, please retry", CodeConflict)
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		msg := err.Error()
		if s.app.Config.IsProduction() {
			msg = "Internal server error"
		}
		WriteErrorWithCode(w, http.StatusInternalServerError, msg, CodeInternal)
	}
}
