package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"farm-market/internal/service"
)

type result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, result{Success: true})
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, result{Success: false, Message: msg})
}

// writeError maps the manager's error kinds onto HTTP statuses. Store
// failures keep their detail in the log, not the response.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeFail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		writeFail(w, http.StatusForbidden, "not allowed")
	case errors.Is(err, service.ErrInvalidQuantity):
		writeFail(w, http.StatusBadRequest, service.ErrInvalidQuantity.Error())
	case errors.Is(err, service.ErrConflict):
		writeFail(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeFail(w, http.StatusInternalServerError, "internal error")
	}
}
