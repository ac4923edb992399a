// Package httputil writes JSON responses for the REST handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/livepoll/go/internal/apperr"
	"github.com/rs/zerolog/log"
)

// ErrorBody is the JSON shape of every REST error.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// Error maps err onto its HTTP status and public message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request rejected")
	}
	JSON(w, status, ErrorBody{Error: apperr.PublicMessage(err)})
}

// Decode reads a JSON request body into v. Malformed bodies become validation errors.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}
