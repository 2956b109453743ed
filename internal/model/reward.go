package model

import "time"

type Reward struct {
	ID          int64      `json:"id"`
	CenterID    int64      `json:"center_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PointsCost  int        `json:"points_cost"`
	Active      bool       `json:"is_active"`
	Featured    bool       `json:"is_featured"`
	Quantity    *int       `json:"quantity"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Available reports whether the reward can currently be redeemed.
func (r *Reward) Available(now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ExpiresAt != nil && !now.Before(*r.ExpiresAt) {
		return false
	}
	return r.Quantity == nil || *r.Quantity > 0
}

type RedemptionStatus string

const (
	RedemptionPending  RedemptionStatus = "pending"
	RedemptionApproved RedemptionStatus = "approved"
	RedemptionRejected RedemptionStatus = "rejected"
)

func (s RedemptionStatus) Valid() bool {
	switch s {
	case RedemptionPending, RedemptionApproved, RedemptionRejected:
		return true
	}
	return false
}

type RewardRedemption struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"user_id"`
	RewardID    int64            `json:"reward_id"`
	PointsCost  int              `json:"points_cost"`
	Status      RedemptionStatus `json:"status"`
	Notes       string           `json:"notes"`
	ProcessedBy *int64           `json:"processed_by"`
	ProcessedAt *time.Time       `json:"processed_at"`
	CreatedAt   time.Time        `json:"created_at"`
}

type PointBalance struct {
	UserID      int64 `json:"user_id"`
	TotalEarned int   `json:"total_earned"`
	TotalSpent  int   `json:"total_spent"`
	Balance     int   `json:"balance"`
}
