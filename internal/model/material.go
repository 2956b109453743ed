package model

import "time"

type Material struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Unit          string `json:"unit"`
	DefaultPoints int    `json:"default_points"`
	Active        bool   `json:"is_active"`
}

// MaterialPointConfig is the per-center override of a material's points.
// Unique per (CenterID, MaterialID).
type MaterialPointConfig struct {
	ID         int64     `json:"id"`
	CenterID   int64     `json:"center_id"`
	MaterialID int64     `json:"material_id"`
	Points     int       `json:"points"`
	Enabled    bool      `json:"is_enabled"`
	Multiplier float64   `json:"multiplier"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BonusConfig grants extra points in a time window. A nil CenterID applies to all centers.
type BonusConfig struct {
	ID          int64      `json:"id"`
	CenterID    *int64     `json:"center_id"`
	Name        string     `json:"name"`
	BonusPoints int        `json:"bonus_points"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Active      bool       `json:"is_active"`
}
