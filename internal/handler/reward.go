package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/greenpoints/internal/apperr"
	"github.com/dukerupert/greenpoints/internal/auth"
	"github.com/dukerupert/greenpoints/internal/model"
	"github.com/dukerupert/greenpoints/internal/notify"
	"github.com/dukerupert/greenpoints/internal/redemption"
	"github.com/dukerupert/greenpoints/internal/store"
)

type RewardHandler struct {
	rewardStore *store.RewardStore
	centerStore *store.CenterStore
	redemptions *redemption.Service
	broadcaster
}

func NewRewardHandler(rs *store.RewardStore, cs *store.CenterStore, svc *redemption.Service, notifier notify.Notifier, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{
		rewardStore: rs,
		centerStore: cs,
		redemptions: svc,
		broadcaster: broadcaster{notifier: notifier, logger: logger},
	}
}

type rewardRequest struct {
	CenterID    int64      `json:"center_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PointsCost  int        `json:"points_cost"`
	Active      *bool      `json:"is_active"`
	Featured    bool       `json:"is_featured"`
	Quantity    *int       `json:"quantity"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func (h *RewardHandler) parse(r *http.Request) (model.Reward, error) {
	var req rewardRequest
	if err := decodeJSON(r, &req); err != nil {
		return model.Reward{}, err
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return model.Reward{}, apperr.Validation("title", "is required")
	}
	if req.PointsCost < 0 {
		return model.Reward{}, apperr.Validation("points_cost", "must be >= 0")
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return model.Reward{}, apperr.Validation("quantity", "must be >= 0")
	}
	if !canManageCenter(r, req.CenterID) {
		return model.Reward{}, &apperr.AuthorizationError{
			ActorID: auth.UserID(r.Context()), Action: "manage rewards", Entity: "center", ID: req.CenterID,
		}
	}
	center, err := h.centerStore.GetByID(req.CenterID)
	if err != nil {
		return model.Reward{}, err
	}
	if center == nil {
		return model.Reward{}, apperr.Validation("center_id", "center does not exist")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return model.Reward{
		CenterID:    req.CenterID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		PointsCost:  req.PointsCost,
		Active:      active,
		Featured:    req.Featured,
		Quantity:    req.Quantity,
		ExpiresAt:   req.ExpiresAt,
	}, nil
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	rw, err := h.parse(r)
	if err != nil {
		writeError(w, h.logger, err, "failed to validate reward")
		return
	}

	reward, err := h.rewardStore.Create(rw)
	if err != nil {
		writeError(w, h.logger, err, "failed to create reward")
		return
	}

	h.emit(r, "reward", "created", reward.ID, map[string]any{"center_id": reward.CenterID})
	writeJSON(w, http.StatusCreated, reward)
}

// List returns rewards. Center owners only see their own center's rewards;
// admins may narrow with ?center_id=. Other users see what they can redeem.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	var centerID *int64
	switch {
	case auth.IsAdmin(r.Context()):
		if s := r.URL.Query().Get("center_id"); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "invalid center_id")
				return
			}
			centerID = &id
		}
	case auth.IsStaff(r.Context()):
		centerID = auth.CenterID(r.Context())
	}

	rewards, err := h.rewardStore.List(centerID)
	if err != nil {
		writeError(w, h.logger, err, "failed to list rewards")
		return
	}

	if !auth.IsStaff(r.Context()) {
		now := time.Now()
		available := rewards[:0]
		for _, rw := range rewards {
			if rw.Available(now) {
				available = append(available, rw)
			}
		}
		rewards = available
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	reward, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadManaged(w, r, "update")
	if !ok {
		return
	}

	rw, err := h.parse(r)
	if err != nil {
		writeError(w, h.logger, err, "failed to validate reward")
		return
	}
	if rw.CenterID != existing.CenterID {
		writeError(w, h.logger, apperr.Validation("center_id", "cannot move a reward to another center"), "")
		return
	}
	rw.ID = existing.ID

	reward, err := h.rewardStore.Update(rw)
	if err != nil {
		writeError(w, h.logger, err, "failed to update reward")
		return
	}

	h.emit(r, "reward", "updated", reward.ID, map[string]any{"center_id": reward.CenterID})
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadManaged(w, r, "toggle")
	if !ok {
		return
	}

	reward, err := h.rewardStore.ToggleActive(existing.ID)
	if err != nil {
		writeError(w, h.logger, err, "failed to toggle reward")
		return
	}

	h.emit(r, "reward", "updated", reward.ID, map[string]any{"center_id": reward.CenterID})
	writeJSON(w, http.StatusOK, reward)
}

// Delete removes a reward that has never been redeemed. Redeemed rewards
// should be deactivated instead.
func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadManaged(w, r, "delete")
	if !ok {
		return
	}

	n, err := h.rewardStore.CountRedemptions(existing.ID)
	if err != nil {
		writeError(w, h.logger, err, "failed to count redemptions")
		return
	}
	if n > 0 {
		writeMessage(w, http.StatusConflict, "reward has redemptions; deactivate it instead")
		return
	}

	if err := h.rewardStore.Delete(existing.ID); err != nil {
		writeError(w, h.logger, err, "failed to delete reward")
		return
	}

	h.emit(r, "reward", "deleted", existing.ID, map[string]any{"center_id": existing.CenterID})
	w.WriteHeader(http.StatusNoContent)
}

// Redeem requests the reward for the authenticated user.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	red, err := h.redemptions.Request(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, h.logger, err, "failed to redeem reward")
		return
	}
	writeJSON(w, http.StatusCreated, red)
}

func (h *RewardHandler) load(w http.ResponseWriter, r *http.Request) (*model.Reward, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	reward, err := h.rewardStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get reward")
		return nil, false
	}
	if reward == nil {
		writeError(w, h.logger, apperr.NotFound("reward", id), "")
		return nil, false
	}
	return reward, true
}

func (h *RewardHandler) loadManaged(w http.ResponseWriter, r *http.Request, action string) (*model.Reward, bool) {
	reward, ok := h.load(w, r)
	if !ok {
		return nil, false
	}
	if !canManageCenter(r, reward.CenterID) {
		writeError(w, h.logger, &apperr.AuthorizationError{
			ActorID: auth.UserID(r.Context()), Action: action, Entity: "reward", ID: reward.ID,
		}, "")
		return nil, false
	}
	return reward, true
}
