package model

import "time"

type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventScheduled, EventCompleted, EventCancelled:
		return true
	}
	return false
}

type CleanupEvent struct {
	ID              int64       `json:"id"`
	CenterID        int64       `json:"center_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Location        string      `json:"location"`
	StartsAt        time.Time   `json:"starts_at"`
	EndsAt          time.Time   `json:"ends_at"`
	PointsReward    int         `json:"points_reward"`
	MaxParticipants *int        `json:"max_participants"`
	Status          EventStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
}
