package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/greenpoints/internal/apperr"
	"github.com/dukerupert/greenpoints/internal/auth"
	"github.com/dukerupert/greenpoints/internal/model"
	"github.com/dukerupert/greenpoints/internal/notify"
	"github.com/dukerupert/greenpoints/internal/store"
)

type CleanupEventHandler struct {
	eventStore  *store.CleanupEventStore
	centerStore *store.CenterStore
	broadcaster
}

func NewCleanupEventHandler(es *store.CleanupEventStore, cs *store.CenterStore, notifier notify.Notifier, logger *slog.Logger) *CleanupEventHandler {
	return &CleanupEventHandler{
		eventStore:  es,
		centerStore: cs,
		broadcaster: broadcaster{notifier: notifier, logger: logger},
	}
}

type cleanupEventRequest struct {
	CenterID        int64             `json:"center_id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Location        string            `json:"location"`
	StartsAt        string            `json:"starts_at"`
	EndsAt          string            `json:"ends_at"`
	PointsReward    int               `json:"points_reward"`
	MaxParticipants *int              `json:"max_participants"`
	Status          model.EventStatus `json:"status"`
}

// parse validates the request and checks that the caller may manage the
// target center.
func (h *CleanupEventHandler) parse(r *http.Request) (model.CleanupEvent, error) {
	var req cleanupEventRequest
	if err := decodeJSON(r, &req); err != nil {
		return model.CleanupEvent{}, err
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return model.CleanupEvent{}, apperr.Validation("title", "is required")
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return model.CleanupEvent{}, apperr.Validation("starts_at", "must be RFC3339")
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		return model.CleanupEvent{}, apperr.Validation("ends_at", "must be RFC3339")
	}
	if !endsAt.After(startsAt) {
		return model.CleanupEvent{}, apperr.Validation("ends_at", "must be after starts_at")
	}
	if req.PointsReward < 0 {
		return model.CleanupEvent{}, apperr.Validation("points_reward", "must be >= 0")
	}
	if req.MaxParticipants != nil && *req.MaxParticipants < 1 {
		return model.CleanupEvent{}, apperr.Validation("max_participants", "must be positive")
	}
	if req.Status == "" {
		req.Status = model.EventScheduled
	}
	if !req.Status.Valid() {
		return model.CleanupEvent{}, apperr.Validation("status", "must be scheduled, completed or cancelled")
	}

	if !canManageCenter(r, req.CenterID) {
		return model.CleanupEvent{}, &apperr.AuthorizationError{
			ActorID: auth.UserID(r.Context()), Action: "schedule cleanup event", Entity: "center", ID: req.CenterID,
		}
	}
	center, err := h.centerStore.GetByID(req.CenterID)
	if err != nil {
		return model.CleanupEvent{}, err
	}
	if center == nil {
		return model.CleanupEvent{}, apperr.Validation("center_id", "center does not exist")
	}

	return model.CleanupEvent{
		CenterID:        req.CenterID,
		Title:           req.Title,
		Description:     strings.TrimSpace(req.Description),
		Location:        strings.TrimSpace(req.Location),
		StartsAt:        startsAt,
		EndsAt:          endsAt,
		PointsReward:    req.PointsReward,
		MaxParticipants: req.MaxParticipants,
		Status:          req.Status,
	}, nil
}

func (h *CleanupEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	e, err := h.parse(r)
	if err != nil {
		writeError(w, h.logger, err, "failed to validate cleanup event")
		return
	}

	event, err := h.eventStore.Create(e)
	if err != nil {
		writeError(w, h.logger, err, "failed to create cleanup event")
		return
	}

	h.emit(r, "cleanup_event", "created", event.ID, map[string]any{"center_id": event.CenterID})
	writeJSON(w, http.StatusCreated, event)
}

// List returns every event, or those overlapping ?from=&to= for the
// calendar. Both bounds accept RFC3339 or YYYY-MM-DD.
func (h *CleanupEventHandler) List(w http.ResponseWriter, r *http.Request) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	var events []model.CleanupEvent
	var err error
	switch {
	case fromStr == "" && toStr == "":
		events, err = h.eventStore.List()
	case fromStr == "" || toStr == "":
		writeMessage(w, http.StatusBadRequest, "from and to must be given together")
		return
	default:
		from, perr := parseFlexibleTime(fromStr)
		if perr != nil {
			writeMessage(w, http.StatusBadRequest, "from must be RFC3339 or YYYY-MM-DD format")
			return
		}
		to, perr := parseFlexibleTime(toStr)
		if perr != nil {
			writeMessage(w, http.StatusBadRequest, "to must be RFC3339 or YYYY-MM-DD format")
			return
		}
		if !to.After(from) {
			writeMessage(w, http.StatusBadRequest, "to must be after from")
			return
		}
		events, err = h.eventStore.ListRange(from, to)
	}
	if err != nil {
		writeError(w, h.logger, err, "failed to list cleanup events")
		return
	}
	if events == nil {
		events = []model.CleanupEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *CleanupEventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *CleanupEventHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	if !canManageCenter(r, existing.CenterID) {
		writeError(w, h.logger, &apperr.AuthorizationError{
			ActorID: auth.UserID(r.Context()), Action: "update", Entity: "cleanup event", ID: existing.ID,
		}, "")
		return
	}

	e, err := h.parse(r)
	if err != nil {
		writeError(w, h.logger, err, "failed to validate cleanup event")
		return
	}
	e.ID = existing.ID

	event, err := h.eventStore.Update(e)
	if err != nil {
		writeError(w, h.logger, err, "failed to update cleanup event")
		return
	}

	h.emit(r, "cleanup_event", "updated", event.ID, map[string]any{"center_id": event.CenterID})
	writeJSON(w, http.StatusOK, event)
}

func (h *CleanupEventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	if !canManageCenter(r, existing.CenterID) {
		writeError(w, h.logger, &apperr.AuthorizationError{
			ActorID: auth.UserID(r.Context()), Action: "delete", Entity: "cleanup event", ID: existing.ID,
		}, "")
		return
	}
	if err := h.eventStore.Delete(existing.ID); err != nil {
		writeError(w, h.logger, err, "failed to delete cleanup event")
		return
	}

	h.emit(r, "cleanup_event", "deleted", existing.ID, map[string]any{"center_id": existing.CenterID})
	w.WriteHeader(http.StatusNoContent)
}

func (h *CleanupEventHandler) load(w http.ResponseWriter, r *http.Request) (*model.CleanupEvent, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	event, err := h.eventStore.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get cleanup event")
		return nil, false
	}
	if event == nil {
		writeError(w, h.logger, apperr.NotFound("cleanup event", id), "")
		return nil, false
	}
	return event, true
}

func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
