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
	"github.com/dukerupert/greenpoints/internal/pointsync"
	"github.com/dukerupert/greenpoints/internal/store"
)

type MaterialHandler struct {
	materialStore *store.MaterialStore
	centerStore   *store.CenterStore
	syncer        *pointsync.Syncer
	broadcaster
}

func NewMaterialHandler(ms *store.MaterialStore, cs *store.CenterStore, syncer *pointsync.Syncer, notifier notify.Notifier, logger *slog.Logger) *MaterialHandler {
	return &MaterialHandler{
		materialStore: ms,
		centerStore:   cs,
		syncer:        syncer,
		broadcaster:   broadcaster{notifier: notifier, logger: logger},
	}
}

type materialRequest struct {
	Name          string `json:"name"`
	Unit          string `json:"unit"`
	DefaultPoints int    `json:"default_points"`
	Active        *bool  `json:"is_active"`
}

func (req *materialRequest) normalize() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperr.Validation("name", "is required")
	}
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Unit == "" {
		req.Unit = "kg"
	}
	if req.DefaultPoints < 0 {
		return apperr.Validation("default_points", "must be >= 0")
	}
	if req.Active == nil {
		active := true
		req.Active = &active
	}
	return nil
}

func (h *MaterialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := req.normalize(); err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	m, err := h.materialStore.Create(req.Name, req.Unit, req.DefaultPoints, *req.Active)
	if err != nil {
		writeError(w, h.logger, err, "failed to create material")
		return
	}

	h.emit(r, "material", "created", m.ID, nil)
	writeJSON(w, http.StatusCreated, m)
}

func (h *MaterialHandler) List(w http.ResponseWriter, r *http.Request) {
	materials, err := h.materialStore.List()
	if err != nil {
		writeError(w, h.logger, err, "failed to list materials")
		return
	}
	if materials == nil {
		materials = []model.Material{}
	}
	writeJSON(w, http.StatusOK, materials)
}

func (h *MaterialHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	var req materialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := req.normalize(); err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	m, err := h.materialStore.Update(existing.ID, req.Name, req.Unit, req.DefaultPoints, *req.Active)
	if err != nil {
		writeError(w, h.logger, err, "failed to update material")
		return
	}

	h.emit(r, "material", "updated", m.ID, nil)
	writeJSON(w, http.StatusOK, m)
}

func (h *MaterialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.materialStore.Delete(existing.ID); err != nil {
		writeError(w, h.logger, err, "failed to delete material")
		return
	}

	h.emit(r, "material", "deleted", existing.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Sync overwrites every approved center's config for the material with its
// default points.
func (h *MaterialHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	res, err := h.syncer.SyncMaterial(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, "failed to sync points")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *MaterialHandler) load(w http.ResponseWriter, r *http.Request) (*model.Material, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	m, err := h.materialStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get material")
		return nil, false
	}
	if m == nil {
		writeError(w, h.logger, apperr.NotFound("material", id), "")
		return nil, false
	}
	return m, true
}

// --- Point configs ---

// ListPointConfigs returns a center's per-material configs. Admins and the
// center's owner may read them.
func (h *MaterialHandler) ListPointConfigs(w http.ResponseWriter, r *http.Request) {
	centerID, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if !canManageCenter(r, centerID) {
		writeError(w, h.logger, &apperr.AuthorizationError{
			ActorID: auth.UserID(r.Context()), Action: "read point configs", Entity: "center", ID: centerID,
		}, "")
		return
	}

	center, err := h.centerStore.GetByID(centerID)
	if err != nil {
		writeError(w, h.logger, err, "failed to get center")
		return
	}
	if center == nil {
		writeError(w, h.logger, apperr.NotFound("center", centerID), "")
		return
	}

	configs, err := h.materialStore.ListPointConfigsByCenter(centerID)
	if err != nil {
		writeError(w, h.logger, err, "failed to list point configs")
		return
	}
	if configs == nil {
		configs = []model.MaterialPointConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

type pointConfigRequest struct {
	Points     int      `json:"points"`
	Enabled    *bool    `json:"is_enabled"`
	Multiplier *float64 `json:"multiplier"`
}

func (h *MaterialHandler) UpdatePointConfig(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.materialStore.GetPointConfig(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get point config")
		return
	}
	if existing == nil {
		writeError(w, h.logger, apperr.NotFound("point config", id), "")
		return
	}
	if !canManageCenter(r, existing.CenterID) {
		writeError(w, h.logger, &apperr.AuthorizationError{
			ActorID: auth.UserID(r.Context()), Action: "update", Entity: "point config", ID: id,
		}, "")
		return
	}

	var req pointConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if req.Points < 0 {
		writeError(w, h.logger, apperr.Validation("points", "must be >= 0"), "")
		return
	}
	enabled := existing.Enabled
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	multiplier := existing.Multiplier
	if req.Multiplier != nil {
		if *req.Multiplier <= 0 {
			writeError(w, h.logger, apperr.Validation("multiplier", "must be positive"), "")
			return
		}
		multiplier = *req.Multiplier
	}

	cfg, err := h.materialStore.UpdatePointConfig(id, req.Points, enabled, multiplier)
	if err != nil {
		writeError(w, h.logger, err, "failed to update point config")
		return
	}

	h.emit(r, "point_config", "updated", cfg.ID, map[string]any{"center_id": cfg.CenterID, "material_id": cfg.MaterialID})
	writeJSON(w, http.StatusOK, cfg)
}

// --- Bonus configs ---

type bonusConfigRequest struct {
	CenterID    *int64     `json:"center_id"`
	Name        string     `json:"name"`
	BonusPoints int        `json:"bonus_points"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Active      *bool      `json:"is_active"`
}

func (h *MaterialHandler) CreateBonusConfig(w http.ResponseWriter, r *http.Request) {
	var req bonusConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, h.logger, apperr.Validation("name", "is required"), "")
		return
	}
	if req.BonusPoints <= 0 {
		writeError(w, h.logger, apperr.Validation("bonus_points", "must be positive"), "")
		return
	}
	if req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt) {
		writeError(w, h.logger, apperr.Validation("ends_at", "must be after starts_at"), "")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	b, err := h.materialStore.CreateBonusConfig(model.BonusConfig{
		CenterID:    req.CenterID,
		Name:        req.Name,
		BonusPoints: req.BonusPoints,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Active:      active,
	})
	if err != nil {
		writeError(w, h.logger, err, "failed to create bonus config")
		return
	}

	h.emit(r, "bonus_config", "created", b.ID, nil)
	writeJSON(w, http.StatusCreated, b)
}

func (h *MaterialHandler) ListBonusConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.materialStore.ListBonusConfigs()
	if err != nil {
		writeError(w, h.logger, err, "failed to list bonus configs")
		return
	}
	if configs == nil {
		configs = []model.BonusConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *MaterialHandler) DeleteBonusConfig(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.materialStore.DeleteBonusConfig(id); err != nil {
		writeError(w, h.logger, err, "failed to delete bonus config")
		return
	}

	h.emit(r, "bonus_config", "deleted", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
