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

type WasteHandler struct {
	wasteStore *store.WasteStore
	broadcaster
}

func NewWasteHandler(ws *store.WasteStore, notifier notify.Notifier, logger *slog.Logger) *WasteHandler {
	return &WasteHandler{wasteStore: ws, broadcaster: broadcaster{notifier: notifier, logger: logger}}
}

type wasteTypeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      *bool  `json:"is_active"`
}

func (req *wasteTypeRequest) normalize() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperr.Validation("name", "is required")
	}
	if req.Active == nil {
		active := true
		req.Active = &active
	}
	return nil
}

func (h *WasteHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req wasteTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := req.normalize(); err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	wt, err := h.wasteStore.CreateType(req.Name, strings.TrimSpace(req.Description), *req.Active)
	if err != nil {
		writeError(w, h.logger, err, "failed to create waste type")
		return
	}

	h.emit(r, "waste_type", "created", wt.ID, nil)
	writeJSON(w, http.StatusCreated, wt)
}

func (h *WasteHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.wasteStore.ListTypes()
	if err != nil {
		writeError(w, h.logger, err, "failed to list waste types")
		return
	}
	if types == nil {
		types = []model.WasteType{}
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *WasteHandler) UpdateType(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadType(w, r)
	if !ok {
		return
	}

	var req wasteTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := req.normalize(); err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	wt, err := h.wasteStore.UpdateType(existing.ID, req.Name, strings.TrimSpace(req.Description), *req.Active)
	if err != nil {
		writeError(w, h.logger, err, "failed to update waste type")
		return
	}

	h.emit(r, "waste_type", "updated", wt.ID, nil)
	writeJSON(w, http.StatusOK, wt)
}

// DeleteType removes the type and, through the cascade, its items.
func (h *WasteHandler) DeleteType(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadType(w, r)
	if !ok {
		return
	}
	if err := h.wasteStore.DeleteType(existing.ID); err != nil {
		writeError(w, h.logger, err, "failed to delete waste type")
		return
	}

	h.emit(r, "waste_type", "deleted", existing.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}

type wasteItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Recyclable  *bool  `json:"recyclable"`
}

func (req *wasteItemRequest) normalize() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperr.Validation("name", "is required")
	}
	if req.Recyclable == nil {
		recyclable := true
		req.Recyclable = &recyclable
	}
	return nil
}

func (h *WasteHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	wt, ok := h.loadType(w, r)
	if !ok {
		return
	}

	var req wasteItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := req.normalize(); err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	item, err := h.wasteStore.CreateItem(wt.ID, req.Name, strings.TrimSpace(req.Description), *req.Recyclable)
	if err != nil {
		writeError(w, h.logger, err, "failed to create waste item")
		return
	}

	h.emit(r, "waste_item", "created", item.ID, map[string]any{"waste_type_id": wt.ID})
	writeJSON(w, http.StatusCreated, item)
}

func (h *WasteHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	wt, ok := h.loadType(w, r)
	if !ok {
		return
	}

	items, err := h.wasteStore.ListItems(wt.ID)
	if err != nil {
		writeError(w, h.logger, err, "failed to list waste items")
		return
	}
	if items == nil {
		items = []model.WasteItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *WasteHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadItem(w, r)
	if !ok {
		return
	}

	var req wasteItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	if err := req.normalize(); err != nil {
		writeError(w, h.logger, err, "")
		return
	}

	item, err := h.wasteStore.UpdateItem(existing.ID, req.Name, strings.TrimSpace(req.Description), *req.Recyclable)
	if err != nil {
		writeError(w, h.logger, err, "failed to update waste item")
		return
	}

	h.emit(r, "waste_item", "updated", item.ID, map[string]any{"waste_type_id": item.WasteTypeID})
	writeJSON(w, http.StatusOK, item)
}

func (h *WasteHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadItem(w, r)
	if !ok {
		return
	}
	if err := h.wasteStore.DeleteItem(existing.ID); err != nil {
		writeError(w, h.logger, err, "failed to delete waste item")
		return
	}

	h.emit(r, "waste_item", "deleted", existing.ID, map[string]any{"waste_type_id": existing.WasteTypeID})
	w.WriteHeader(http.StatusNoContent)
}

func (h *WasteHandler) loadType(w http.ResponseWriter, r *http.Request) (*model.WasteType, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	wt, err := h.wasteStore.GetType(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get waste type")
		return nil, false
	}
	if wt == nil {
		writeError(w, h.logger, apperr.NotFound("waste type", id), "")
		return nil, false
	}
	return wt, true
}

func (h *WasteHandler) loadItem(w http.ResponseWriter, r *http.Request) (*model.WasteItem, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	item, err := h.wasteStore.GetItem(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get waste item")
		return nil, false
	}
	if item == nil {
		writeError(w, h.logger, apperr.NotFound("waste item", id), "")
		return nil, false
	}
	return item, true
}
