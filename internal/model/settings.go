package model

import "time"

// Known settings keys. Values are stored as strings.
const (
	SettingAutoApproveMaxPoints = "redemption_auto_approve_max_points"
	SettingEmailNotifications   = "redemption_email_notifications"
	SettingDefaultMultiplier    = "points_default_multiplier"
)

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
