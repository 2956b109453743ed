package model

import "time"

type PointsSource string

const (
	SourceRecycling    PointsSource = "recycling"
	SourceCleanupEvent PointsSource = "cleanup_event"
	SourceRedemption   PointsSource = "redemption"
	SourceBonus        PointsSource = "bonus"
	SourceAdjustment   PointsSource = "adjustment"
)

// Reference types used in PointsTransaction.ReferenceType.
const (
	RefRewardRedemption = "reward_redemption"
	RefCleanupEvent     = "cleanup_event"
)

// PointsTransaction is an append-only ledger entry. Points is signed:
// positive credits, negative debits.
type PointsTransaction struct {
	ID            int64        `json:"id"`
	UserID        int64        `json:"user_id"`
	Points        int          `json:"points"`
	Source        PointsSource `json:"source"`
	ReferenceType *string      `json:"reference_type"`
	ReferenceID   *int64       `json:"reference_id"`
	Description   string       `json:"description"`
	CreatedAt     time.Time    `json:"created_at"`
}
