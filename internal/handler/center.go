package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/greenpoints/internal/apperr"
	"github.com/dukerupert/greenpoints/internal/model"
	"github.com/dukerupert/greenpoints/internal/notify"
	"github.com/dukerupert/greenpoints/internal/store"
)

type CenterHandler struct {
	centerStore *store.CenterStore
	userStore   *store.UserStore
	broadcaster
}

func NewCenterHandler(cs *store.CenterStore, us *store.UserStore, notifier notify.Notifier, logger *slog.Logger) *CenterHandler {
	return &CenterHandler{
		centerStore: cs,
		userStore:   us,
		broadcaster: broadcaster{notifier: notifier, logger: logger},
	}
}

type centerRequest struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Phone     string   `json:"phone"`
	Email     string   `json:"email"`
	OwnerID   *int64   `json:"owner_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (h *CenterHandler) validate(req *centerRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperr.Validation("name", "is required")
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		return apperr.Validation("latitude", "must be between -90 and 90")
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		return apperr.Validation("longitude", "must be between -180 and 180")
	}
	if req.OwnerID != nil {
		owner, err := h.userStore.GetByID(*req.OwnerID)
		if err != nil {
			return err
		}
		if owner == nil {
			return apperr.Validation("owner_id", "user does not exist")
		}
		if owner.AccountType != model.AccountCenterOwner {
			return apperr.Validation("owner_id", "user is not a center owner")
		}
	}
	return nil
}

func (r centerRequest) center() model.RecyclingCenter {
	return model.RecyclingCenter{
		Name:      r.Name,
		Address:   strings.TrimSpace(r.Address),
		City:      strings.TrimSpace(r.City),
		Phone:     strings.TrimSpace(r.Phone),
		Email:     strings.TrimSpace(r.Email),
		OwnerID:   r.OwnerID,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

func (h *CenterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req centerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := h.validate(&req); err != nil {
		writeError(w, h.logger, err, "failed to validate center")
		return
	}

	center, err := h.centerStore.Create(req.center())
	if err != nil {
		writeError(w, h.logger, err, "failed to create center")
		return
	}

	h.emit(r, "center", "created", center.ID, map[string]any{"center_id": center.ID})
	writeJSON(w, http.StatusCreated, center)
}

// List returns all centers, or those with ?status= when given.
func (h *CenterHandler) List(w http.ResponseWriter, r *http.Request) {
	var centers []model.RecyclingCenter
	var err error
	if status := model.CenterStatus(r.URL.Query().Get("status")); status != "" {
		if !status.Valid() {
			writeMessage(w, http.StatusBadRequest, "invalid status")
			return
		}
		centers, err = h.centerStore.ListByStatus(r.Context(), status)
	} else {
		centers, err = h.centerStore.List()
	}
	if err != nil {
		writeError(w, h.logger, err, "failed to list centers")
		return
	}
	if centers == nil {
		centers = []model.RecyclingCenter{}
	}
	writeJSON(w, http.StatusOK, centers)
}

func (h *CenterHandler) Get(w http.ResponseWriter, r *http.Request) {
	center, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, center)
}

func (h *CenterHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	var req centerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := h.validate(&req); err != nil {
		writeError(w, h.logger, err, "failed to validate center")
		return
	}

	c := req.center()
	c.ID = existing.ID
	center, err := h.centerStore.Update(c)
	if err != nil {
		writeError(w, h.logger, err, "failed to update center")
		return
	}

	h.emit(r, "center", "updated", center.ID, map[string]any{"center_id": center.ID})
	writeJSON(w, http.StatusOK, center)
}

func (h *CenterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.centerStore.Delete(existing.ID); err != nil {
		writeError(w, h.logger, err, "failed to delete center")
		return
	}

	h.emit(r, "center", "deleted", existing.ID, map[string]any{"center_id": existing.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (h *CenterHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.CenterApproved, "approved")
}

func (h *CenterHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.CenterRejected, "rejected")
}

// setStatus moves a center to status. Re-applying the current status is a
// conflict; any other move is allowed so a rejected center can be reviewed
// again.
func (h *CenterHandler) setStatus(w http.ResponseWriter, r *http.Request, status model.CenterStatus, action string) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	if existing.Status == status {
		writeError(w, h.logger, &apperr.TransitionError{
			Entity: "center", ID: existing.ID, From: string(existing.Status), To: string(status),
		}, "")
		return
	}

	center, err := h.centerStore.SetStatus(existing.ID, status)
	if err != nil {
		writeError(w, h.logger, err, "failed to update center status")
		return
	}

	h.logger.Info("center status changed", "center_id", center.ID, "from", existing.Status, "to", status)
	h.emit(r, "center", action, center.ID, map[string]any{"center_id": center.ID})
	writeJSON(w, http.StatusOK, center)
}

func (h *CenterHandler) load(w http.ResponseWriter, r *http.Request) (*model.RecyclingCenter, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	center, err := h.centerStore.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get center")
		return nil, false
	}
	if center == nil {
		writeError(w, h.logger, apperr.NotFound("center", id), "")
		return nil, false
	}
	return center, true
}
