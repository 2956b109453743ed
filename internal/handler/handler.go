// Package handler holds the JSON handlers of the admin API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/greenpoints/internal/apperr"
	"github.com/dukerupert/greenpoints/internal/auth"
	"github.com/dukerupert/greenpoints/internal/notify"
	"github.com/dukerupert/greenpoints/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps the apperr taxonomy onto HTTP statuses. Anything else is
// logged and reported as a 500 with msg.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrInvalidTransition):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case store.IsConflict(err):
		writeMessage(w, http.StatusConflict, "conflicts with existing data")
	default:
		logger.Error(msg, "error", err)
		writeMessage(w, http.StatusInternalServerError, msg)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("", "invalid JSON")
	}
	return nil
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// canManageCenter reports whether the caller is an admin or owns centerID.
func canManageCenter(r *http.Request, centerID int64) bool {
	if auth.IsAdmin(r.Context()) {
		return true
	}
	owned := auth.CenterID(r.Context())
	return owned != nil && *owned == centerID
}

// broadcaster wraps a notifier for handlers whose events are best effort.
type broadcaster struct {
	notifier notify.Notifier
	logger   *slog.Logger
}

func (b broadcaster) emit(r *http.Request, entity, action string, id int64, extra map[string]any) {
	if b.notifier == nil {
		return
	}
	e := notify.Event{Entity: entity, Action: action, ID: id, Extra: extra}
	if err := b.notifier.Notify(r.Context(), e); err != nil {
		b.logger.Warn("notify", "event", e.Type(), "error", err)
	}
}
