package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/greenpoints/internal/model"
	"github.com/dukerupert/greenpoints/internal/notify"
	"github.com/dukerupert/greenpoints/internal/store"
)

type SettingsHandler struct {
	settingsStore *store.SettingsStore
	broadcaster
}

func NewSettingsHandler(ss *store.SettingsStore, notifier notify.Notifier, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settingsStore: ss, broadcaster: broadcaster{notifier: notifier, logger: logger}}
}

func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsStore.List()
	if err != nil {
		writeError(w, h.logger, err, "failed to list settings")
		return
	}
	if settings == nil {
		settings = []model.Setting{}
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	req.Value = strings.TrimSpace(req.Value)

	if err := validateSetting(key, req.Value); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.settingsStore.Set(key, req.Value); err != nil {
		writeError(w, h.logger, err, "failed to save setting")
		return
	}

	h.emit(r, "settings", "updated", 0, map[string]any{"key": key})
	writeJSON(w, http.StatusOK, model.Setting{Key: key, Value: req.Value})
}

func validateSetting(key, value string) error {
	switch key {
	case model.SettingAutoApproveMaxPoints:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer", key)
		}
	case model.SettingEmailNotifications:
		if value != "true" && value != "false" {
			return fmt.Errorf("%s must be \"true\" or \"false\"", key)
		}
	case model.SettingDefaultMultiplier:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("%s must be a positive number", key)
		}
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	return nil
}
