package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// ownerHeader carries the caller identity. Authentication happens
// upstream; by the time a request reaches this server the header is
// trusted.
const ownerHeader = "X-Owner-ID"

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := r.Header.Get(ownerHeader)
	if owner == "" {
		writeError(w, r, http.StatusUnauthorized, "missing "+ownerHeader+" header")
		return "", false
	}
	return owner, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path, applog.FieldStatusCode, status, applog.FieldError, msg)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps service errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the detail goes to the
// log only.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrInvalidOperation):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Unhandled service error",
			applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path, applog.FieldError, err.Error())
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// queryDate parses an optional YYYY-MM-DD query parameter, returning
// the fallback when absent.
func queryDate(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// listResponse wraps collection payloads so clients never receive a
// bare JSON array.
type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}
