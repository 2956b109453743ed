package redemption

import (
	"context"
	"errors"
	"strings"

	"github.com/dukerupert/greenpoints/internal/apperr"
	"github.com/dukerupert/greenpoints/internal/model"
)

// BulkResult reports the outcome of a bulk decision per redemption id.
type BulkResult struct {
	Processed []model.RewardRedemption `json:"processed"`
	// Skipped holds ids that were no longer pending.
	Skipped []int64       `json:"skipped"`
	Failed  []BulkFailure `json:"failed"`
}

type BulkFailure struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

// BulkApprove approves each pending redemption in ids. Members that are not
// pending are skipped. Members that fail authorization, lookup or stock
// checks are reported and do not stop the rest. Any other error aborts.
func (s *Service) BulkApprove(ctx context.Context, ids []int64, actorID int64) (BulkResult, error) {
	return s.bulk(ctx, ids, func(id int64) (*model.RewardRedemption, error) {
		return s.Approve(ctx, id, actorID)
	})
}

// BulkReject rejects each pending redemption in ids with one shared reason.
// An empty reason fails before anything is written.
func (s *Service) BulkReject(ctx context.Context, ids []int64, actorID int64, reason string) (BulkResult, error) {
	if strings.TrimSpace(reason) == "" {
		return BulkResult{}, apperr.Validation("reason", "is required")
	}
	return s.bulk(ctx, ids, func(id int64) (*model.RewardRedemption, error) {
		return s.Reject(ctx, id, actorID, reason)
	})
}

func (s *Service) bulk(ctx context.Context, ids []int64, apply func(id int64) (*model.RewardRedemption, error)) (BulkResult, error) {
	res := BulkResult{
		Processed: []model.RewardRedemption{},
		Skipped:   []int64{},
		Failed:    []BulkFailure{},
	}
	seen := make(map[int64]bool, len(ids))

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		if err := ctx.Err(); err != nil {
			return res, err
		}

		red, err := apply(id)
		switch {
		case err == nil:
			res.Processed = append(res.Processed, *red)
		case errors.Is(err, apperr.ErrInvalidTransition):
			res.Skipped = append(res.Skipped, id)
		case errors.Is(err, apperr.ErrUnauthorized),
			errors.Is(err, apperr.ErrNotFound),
			errors.Is(err, apperr.ErrValidation):
			res.Failed = append(res.Failed, BulkFailure{ID: id, Error: err.Error()})
		default:
			return res, err
		}
	}

	s.logger.Info("bulk decision finished",
		"processed", len(res.Processed), "skipped", len(res.Skipped), "failed", len(res.Failed))
	return res, nil
}
