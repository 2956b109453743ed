package model

import "time"

type CenterStatus string

const (
	CenterPending  CenterStatus = "pending"
	CenterApproved CenterStatus = "approved"
	CenterRejected CenterStatus = "rejected"
)

func (s CenterStatus) Valid() bool {
	switch s {
	case CenterPending, CenterApproved, CenterRejected:
		return true
	}
	return false
}

type RecyclingCenter struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Address   string       `json:"address"`
	City      string       `json:"city"`
	Phone     string       `json:"phone"`
	Email     string       `json:"email"`
	OwnerID   *int64       `json:"owner_id"`
	Status    CenterStatus `json:"status"`
	Latitude  *float64     `json:"latitude"`
	Longitude *float64     `json:"longitude"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
