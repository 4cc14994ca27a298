package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/genlist/internal/genlist"
	"github.com/roach88/genlist/internal/pool"
	"github.com/roach88/genlist/internal/producer"
	"github.com/roach88/genlist/internal/store"
)

// ErrorResponse is the JSON error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Code: status})
}

// writeError maps well-known errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, producer.ErrInvalidSpec), errors.Is(err, producer.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, pool.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case genlist.IsInvariantError(err), errors.Is(err, store.ErrMultipleHeads):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
