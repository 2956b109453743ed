package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/greenpoints/internal/email"
	"github.com/dukerupert/greenpoints/internal/model"
)

type Mailer interface {
	Configured() bool
	SendRedemptionDecision(ctx context.Context, toEmail string, d email.RedemptionDecision) error
}

type UserDirectory interface {
	GetByID(id int64) (*model.User, error)
}

type FlagSource interface {
	GetBool(key string, def bool) (bool, error)
}

// sendTimeout bounds one background delivery.
const sendTimeout = 30 * time.Second

// EmailNotifier mails the requesting user when a redemption is approved or
// rejected. Other events are ignored. Delivery runs in the background so a
// slow mail provider never holds up the decision; Wait blocks until pending
// deliveries finish.
type EmailNotifier struct {
	mailer   Mailer
	users    UserDirectory
	settings FlagSource
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewEmailNotifier(mailer Mailer, users UserDirectory, settings FlagSource, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		mailer:   mailer,
		users:    users,
		settings: settings,
		logger:   logger,
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, e Event) error {
	if e.Entity != "redemption" || (e.Action != "approved" && e.Action != "rejected") {
		return nil
	}
	if !n.mailer.Configured() || e.UserID == 0 {
		return nil
	}

	// The decision is committed, so delivery outlives the request.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()
		if err := n.deliver(sendCtx, e); err != nil {
			n.logger.Error("redemption email failed", "redemption_id", e.ID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every background delivery has finished.
func (n *EmailNotifier) Wait() {
	n.wg.Wait()
}

func (n *EmailNotifier) deliver(ctx context.Context, e Event) error {
	enabled, err := n.settings.GetBool(model.SettingEmailNotifications, true)
	if err != nil {
		return fmt.Errorf("read email setting: %w", err)
	}
	if !enabled {
		return nil
	}

	u, err := n.users.GetByID(e.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		n.logger.Warn("redemption user missing", "user_id", e.UserID, "redemption_id", e.ID)
		return nil
	}

	d := email.RedemptionDecision{
		Name:         u.Name,
		RedemptionID: e.ID,
		RewardTitle:  e.String("reward_title"),
		PointsCost:   e.Int("points_cost"),
		Approved:     e.Action == "approved",
		Reason:       e.String("notes"),
	}
	if err := n.mailer.SendRedemptionDecision(ctx, u.Email, d); err != nil {
		return fmt.Errorf("send redemption email: %w", err)
	}
	n.logger.Info("redemption email sent", "redemption_id", e.ID, "approved", d.Approved)
	return nil
}
