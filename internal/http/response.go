package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"hearth/internal/auth"
	"hearth/internal/core"
	"hearth/internal/services"
	"hearth/internal/storage"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type errorResponse struct {
	Error string `json:"error"`
}

// respond writes v as a JSON body with the given status.
func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError maps domain errors onto HTTP statuses.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrWalletInUse), errors.Is(err, storage.ErrCategoryInUse):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrNotOwner), errors.Is(err, services.ErrOwnerImmovable),
		errors.Is(err, services.ErrWrongInvitee):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrInviteExpired), errors.Is(err, services.ErrInviteConsumed):
		status = http.StatusGone
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respond(w, status, errorResponse{Error: "internal error"})
		return
	}
	respond(w, status, errorResponse{Error: err.Error()})
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrInvalidKind,
		core.ErrInvalidFrequency,
		core.ErrInvalidMonth,
		core.ErrEmptyName,
		core.ErrEmptyNote,
		core.ErrInvalidEmail,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// decodeJSON reads the request body into dst, rejecting unknown fields
// and oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("malformed request body")
	}
	return nil
}

// badRequest reports a client error that is not a domain validation.
func badRequest(w http.ResponseWriter, message string) {
	respond(w, http.StatusBadRequest, errorResponse{Error: message})
}

func unprocessable(w http.ResponseWriter, message string) {
	respond(w, http.StatusUnprocessableEntity, errorResponse{Error: message})
}
