package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bioshop/services"
	"bioshop/store"

	"go.uber.org/zap"
)

const (
	requestTimeout = 5 * time.Second
	orderTimeout   = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError maps an error onto a status code and { "error": message }.
// Unexpected errors are logged and hidden from the client.
func respondError(w http.ResponseWriter, log *zap.Logger, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, services.ErrValidation):
		status, msg = http.StatusBadRequest, detail(err, services.ErrValidation)
	case errors.Is(err, services.ErrNotFound):
		status, msg = http.StatusNotFound, detail(err, services.ErrNotFound)
	case errors.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrConflict):
		status, msg = http.StatusConflict, detail(err, services.ErrConflict)
	case errors.Is(err, store.ErrDuplicate):
		status, msg = http.StatusConflict, "A record with the same unique value already exists"
	case errors.Is(err, services.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "Invalid email or password"
	default:
		log.Error("request failed", zap.Error(err))
	}
	respondJSON(w, status, map[string]string{"error": msg})
}

// detail strips the sentinel prefix from err's message.
func detail(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		return msg[i+len(sentinel.Error())+2:]
	}
	return msg
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrValidation, fmt.Sprintf(format, args...))
}

// decodeJSON reads a size-limited JSON body into v. A malformed body is a
// validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalid("invalid request body")
	}
	return nil
}
