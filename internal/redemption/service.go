// Package redemption runs the reward redemption workflow: request, approve,
// reject and delete, with the ledger debit applied in the same transaction
// as the approval.
package redemption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/greenpoints/internal/apperr"
	"github.com/dukerupert/greenpoints/internal/model"
	"github.com/dukerupert/greenpoints/internal/notify"
	"github.com/dukerupert/greenpoints/internal/store"
)

const entity = "redemption"

type Service struct {
	db       *sql.DB
	users    *store.UserStore
	rewards  *store.RewardStore
	ledger   *store.LedgerStore
	settings *store.SettingsStore
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(db *sql.DB, notifier notify.Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		db:       db,
		users:    store.NewUserStore(db),
		rewards:  store.NewRewardStore(db),
		ledger:   store.NewLedgerStore(db),
		settings: store.NewSettingsStore(db),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// CanProcess reports whether actor may decide redemptions of reward: admins
// always, center owners only for rewards of the center they own.
func CanProcess(actor *model.Actor, reward *model.Reward) bool {
	if actor == nil || reward == nil {
		return false
	}
	switch actor.AccountType {
	case model.AccountAdmin:
		return true
	case model.AccountCenterOwner:
		return actor.CenterID != nil && *actor.CenterID == reward.CenterID
	}
	return false
}

// Approve moves a pending redemption to approved, decrements stock and
// debits the user's points.
func (s *Service) Approve(ctx context.Context, redemptionID, actorID int64) (*model.RewardRedemption, error) {
	actor, err := s.actor(ctx, actorID, "approve", redemptionID)
	if err != nil {
		return nil, err
	}

	var reward *model.Reward
	err = s.inTx(ctx, func(rs *store.RewardStore, ls *store.LedgerStore) error {
		red, rw, err := s.loadForDecision(ctx, rs, actor, "approve", string(model.RedemptionApproved), redemptionID)
		if err != nil {
			return err
		}
		reward = rw
		return s.approve(ctx, rs, ls, red, rw, &actor.UserID)
	})
	if err != nil {
		return nil, err
	}

	red, err := s.rewards.GetRedemption(ctx, redemptionID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("redemption approved", "redemption_id", red.ID, "actor_id", actorID, "points", red.PointsCost)
	s.emit(ctx, "approved", red, reward)
	return red, nil
}

// Reject moves a pending redemption to rejected and records reason as its
// notes. No points or stock change.
func (s *Service) Reject(ctx context.Context, redemptionID, actorID int64, reason string) (*model.RewardRedemption, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("reason", "is required")
	}

	actor, err := s.actor(ctx, actorID, "reject", redemptionID)
	if err != nil {
		return nil, err
	}

	var reward *model.Reward
	err = s.inTx(ctx, func(rs *store.RewardStore, _ *store.LedgerStore) error {
		red, rw, err := s.loadForDecision(ctx, rs, actor, "reject", string(model.RedemptionRejected), redemptionID)
		if err != nil {
			return err
		}
		reward = rw
		ok, err := rs.MarkProcessed(ctx, red.ID, model.RedemptionRejected, &actor.UserID, &reason, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return transition(red, model.RedemptionRejected)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	red, err := s.rewards.GetRedemption(ctx, redemptionID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("redemption rejected", "redemption_id", red.ID, "actor_id", actorID)
	s.emit(ctx, "rejected", red, reward)
	return red, nil
}

// Request creates a pending redemption for userID. When the auto-approve
// threshold setting is positive and the cost does not exceed it, the
// redemption is approved in the same transaction with no processor.
func (s *Service) Request(ctx context.Context, userID, rewardID int64) (*model.RewardRedemption, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user", userID)
	}
	threshold, err := s.settings.GetInt(model.SettingAutoApproveMaxPoints, 0)
	if err != nil {
		return nil, err
	}

	var red *model.RewardRedemption
	var reward *model.Reward
	var auto bool
	err = s.inTx(ctx, func(rs *store.RewardStore, ls *store.LedgerStore) error {
		rw, err := rs.GetByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if rw == nil {
			return apperr.NotFound("reward", rewardID)
		}
		if err := checkAvailable(rw, s.now()); err != nil {
			return err
		}

		bal, err := ls.Balance(ctx, userID)
		if err != nil {
			return err
		}
		pending, err := rs.PendingCost(ctx, userID)
		if err != nil {
			return err
		}
		if bal.Balance-pending < rw.PointsCost {
			return apperr.Validation("points", fmt.Sprintf("insufficient points: have %d available, need %d", bal.Balance-pending, rw.PointsCost))
		}

		red, err = rs.CreateRedemption(ctx, userID, rw.ID, rw.PointsCost)
		if err != nil {
			return err
		}
		reward = rw

		if threshold > 0 && rw.PointsCost <= threshold {
			auto = true
			return s.approve(ctx, rs, ls, red, rw, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	red, err = s.rewards.GetRedemption(ctx, red.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("redemption requested", "redemption_id", red.ID, "user_id", userID, "reward_id", rewardID, "auto_approved", auto)
	s.emit(ctx, "requested", red, reward)
	if auto {
		s.emit(ctx, "approved", red, reward)
	}
	return red, nil
}

// Delete removes a redemption that is still pending.
func (s *Service) Delete(ctx context.Context, redemptionID, actorID int64) error {
	actor, err := s.actor(ctx, actorID, "delete", redemptionID)
	if err != nil {
		return err
	}

	var red *model.RewardRedemption
	var reward *model.Reward
	err = s.inTx(ctx, func(rs *store.RewardStore, _ *store.LedgerStore) error {
		r, rw, err := s.loadForDecision(ctx, rs, actor, "delete", "deleted", redemptionID)
		if err != nil {
			return err
		}
		red, reward = r, rw
		ok, err := rs.DeletePending(ctx, r.ID)
		if err != nil {
			return err
		}
		if !ok {
			return &apperr.TransitionError{Entity: entity, ID: r.ID, From: string(r.Status), To: "deleted"}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("redemption deleted", "redemption_id", redemptionID, "actor_id", actorID)
	s.emit(ctx, "deleted", red, reward)
	return nil
}

// List returns redemptions visible to the actor: all of them for admins,
// those of the owned center for center owners.
func (s *Service) List(ctx context.Context, actorID int64, status model.RedemptionStatus) ([]model.RewardRedemption, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("status", fmt.Sprintf("unknown status %q", status))
	}
	actor, err := s.users.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	f := store.RedemptionFilter{Status: status}
	switch {
	case actor == nil:
		return nil, &apperr.AuthorizationError{ActorID: actorID, Action: "list", Entity: entity}
	case actor.AccountType == model.AccountAdmin:
	case actor.AccountType == model.AccountCenterOwner && actor.CenterID != nil:
		f.CenterID = actor.CenterID
	default:
		return nil, &apperr.AuthorizationError{ActorID: actorID, Action: "list", Entity: entity}
	}
	return s.rewards.ListRedemptions(ctx, f)
}

// ListForUser returns the redemptions a user has requested, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]model.RewardRedemption, error) {
	return s.rewards.ListRedemptions(ctx, store.RedemptionFilter{UserID: &userID})
}

// approve applies the approval effects inside the caller's transaction.
// processedBy is nil for system approvals.
func (s *Service) approve(ctx context.Context, rs *store.RewardStore, ls *store.LedgerStore, red *model.RewardRedemption, reward *model.Reward, processedBy *int64) error {
	ok, err := rs.MarkProcessed(ctx, red.ID, model.RedemptionApproved, processedBy, nil, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return transition(red, model.RedemptionApproved)
	}

	inStock, err := rs.DecrementQuantity(ctx, reward.ID)
	if err != nil {
		return err
	}
	if !inStock {
		return apperr.Validation("", "reward out of stock")
	}

	refType := model.RefRewardRedemption
	refID := red.ID
	_, err = ls.Record(ctx, model.PointsTransaction{
		UserID:        red.UserID,
		Points:        -red.PointsCost,
		Source:        model.SourceRedemption,
		ReferenceType: &refType,
		ReferenceID:   &refID,
		Description:   fmt.Sprintf("Redeemed %s", reward.Title),
	})
	return err
}

// loadForDecision reads the redemption and its reward and checks the actor
// may act on them.
func (s *Service) loadForDecision(ctx context.Context, rs *store.RewardStore, actor *model.Actor, action, to string, redemptionID int64) (*model.RewardRedemption, *model.Reward, error) {
	red, err := rs.GetRedemption(ctx, redemptionID)
	if err != nil {
		return nil, nil, err
	}
	if red == nil {
		return nil, nil, apperr.NotFound(entity, redemptionID)
	}
	reward, err := rs.GetByID(ctx, red.RewardID)
	if err != nil {
		return nil, nil, err
	}
	if reward == nil {
		return nil, nil, apperr.NotFound("reward", red.RewardID)
	}
	if !CanProcess(actor, reward) {
		return nil, nil, &apperr.AuthorizationError{ActorID: actor.UserID, Action: action, Entity: entity, ID: redemptionID}
	}
	if red.Status != model.RedemptionPending {
		return nil, nil, &apperr.TransitionError{Entity: entity, ID: red.ID, From: string(red.Status), To: to}
	}
	return red, reward, nil
}

// actor resolves actorID outside any transaction. Unknown users are not
// authorized for anything.
func (s *Service) actor(ctx context.Context, actorID int64, action string, redemptionID int64) (*model.Actor, error) {
	a, err := s.users.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &apperr.AuthorizationError{ActorID: actorID, Action: action, Entity: entity, ID: redemptionID}
	}
	return a, nil
}

func (s *Service) inTx(ctx context.Context, fn func(rs *store.RewardStore, ls *store.LedgerStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(s.rewards.WithTx(tx), s.ledger.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// emit sends a notification after commit. Failures are logged only.
func (s *Service) emit(ctx context.Context, action string, red *model.RewardRedemption, reward *model.Reward) {
	extra := map[string]any{
		"status":      string(red.Status),
		"points_cost": red.PointsCost,
		"reward_id":   red.RewardID,
	}
	if reward != nil {
		extra["reward_title"] = reward.Title
		extra["center_id"] = reward.CenterID
	}
	if red.Notes != "" {
		extra["notes"] = red.Notes
	}

	err := s.notifier.Notify(ctx, notify.Event{Entity: entity, Action: action, ID: red.ID, UserID: red.UserID, Extra: extra})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("notify failed", "redemption_id", red.ID, "action", action, "error", err)
	}
}

func checkAvailable(r *model.Reward, now time.Time) error {
	switch {
	case !r.Active:
		return apperr.Validation("reward", "reward is not active")
	case r.ExpiresAt != nil && !now.Before(*r.ExpiresAt):
		return apperr.Validation("reward", "reward has expired")
	case r.Quantity != nil && *r.Quantity <= 0:
		return apperr.Validation("", "reward out of stock")
	}
	return nil
}

func transition(red *model.RewardRedemption, to model.RedemptionStatus) error {
	return &apperr.TransitionError{Entity: entity, ID: red.ID, From: string(red.Status), To: string(to)}
}
