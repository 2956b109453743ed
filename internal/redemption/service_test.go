package redemption

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/greenpoints/internal/apperr"
	"github.com/dukerupert/greenpoints/internal/database"
	"github.com/dukerupert/greenpoints/internal/logging"
	"github.com/dukerupert/greenpoints/internal/model"
	"github.com/dukerupert/greenpoints/internal/notify"
	"github.com/dukerupert/greenpoints/internal/store"
)

// fixture seeds four approved centers (ids 1-4), an admin, the owner of
// center 3, the owner of center 4, a standard user with 500 points, and one
// reward per center.
type fixture struct {
	db       *sql.DB
	svc      *Service
	users    *store.UserStore
	rewards  *store.RewardStore
	ledger   *store.LedgerStore
	settings *store.SettingsStore

	admin    *model.User
	owner3   *model.User
	owner4   *model.User
	customer *model.User
	rewardAt map[int64]*model.Reward

	mu     sync.Mutex
	events []notify.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		users:    store.NewUserStore(db),
		rewards:  store.NewRewardStore(db),
		ledger:   store.NewLedgerStore(db),
		settings: store.NewSettingsStore(db),
		rewardAt: map[int64]*model.Reward{},
	}
	f.svc = NewService(db, notify.Func(func(_ context.Context, e notify.Event) error {
		f.mu.Lock()
		f.events = append(f.events, e)
		f.mu.Unlock()
		return nil
	}), logging.Discard())

	f.admin = f.user(t, "admin@example.com", model.AccountAdmin)
	f.owner3 = f.user(t, "owner3@example.com", model.AccountCenterOwner)
	f.owner4 = f.user(t, "owner4@example.com", model.AccountCenterOwner)
	f.customer = f.user(t, "customer@example.com", model.AccountStandard)

	cs := store.NewCenterStore(db)
	for i := int64(1); i <= 4; i++ {
		var owner *int64
		switch i {
		case 3:
			owner = &f.owner3.ID
		case 4:
			owner = &f.owner4.ID
		}
		c, err := cs.Create(model.RecyclingCenter{Name: "Center", Status: model.CenterApproved, OwnerID: owner})
		require.NoError(t, err)
		require.Equal(t, i, c.ID)

		r, err := f.rewards.Create(model.Reward{CenterID: c.ID, Title: "Voucher", PointsCost: 50, Active: true})
		require.NoError(t, err)
		f.rewardAt[c.ID] = r
	}

	f.credit(t, f.customer.ID, 500)
	return f
}

func (f *fixture) user(t *testing.T, email string, typ model.AccountType) *model.User {
	t.Helper()
	u, err := f.users.Create(email, email, typ, "")
	require.NoError(t, err)
	return u
}

func (f *fixture) credit(t *testing.T, userID int64, points int) {
	t.Helper()
	_, err := f.ledger.Record(context.Background(), model.PointsTransaction{
		UserID: userID, Points: points, Source: model.SourceRecycling,
	})
	require.NoError(t, err)
}

// insertRedemption writes a redemption row with a fixed id and status.
func (f *fixture) insertRedemption(t *testing.T, id, rewardID int64, status model.RedemptionStatus) *model.RewardRedemption {
	t.Helper()
	_, err := f.db.Exec(
		`INSERT INTO reward_redemptions (id, user_id, reward_id, points_cost, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, f.customer.ID, rewardID, 50, status, time.Now().UTC(),
	)
	require.NoError(t, err)
	return f.get(t, id)
}

func (f *fixture) get(t *testing.T, id int64) *model.RewardRedemption {
	t.Helper()
	r, err := f.rewards.GetRedemption(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, r)
	return r
}

func (f *fixture) ledgerEntries(t *testing.T, redemptionID int64) []model.PointsTransaction {
	t.Helper()
	entries, err := f.ledger.ListByReference(context.Background(), model.RefRewardRedemption, redemptionID)
	require.NoError(t, err)
	return entries
}

func TestCanProcess(t *testing.T) {
	three, four := int64(3), int64(4)
	reward := &model.Reward{ID: 1, CenterID: 3}

	tests := []struct {
		name  string
		actor *model.Actor
		want  bool
	}{
		{"admin", &model.Actor{UserID: 1, AccountType: model.AccountAdmin}, true},
		{"admin owning another center", &model.Actor{UserID: 1, AccountType: model.AccountAdmin, CenterID: &four}, true},
		{"owner of reward center", &model.Actor{UserID: 2, AccountType: model.AccountCenterOwner, CenterID: &three}, true},
		{"owner of other center", &model.Actor{UserID: 2, AccountType: model.AccountCenterOwner, CenterID: &four}, false},
		{"owner without center", &model.Actor{UserID: 2, AccountType: model.AccountCenterOwner}, false},
		{"standard owning the center", &model.Actor{UserID: 3, AccountType: model.AccountStandard, CenterID: &three}, false},
		{"nil actor", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanProcess(tt.actor, reward))
		})
	}
	assert.False(t, CanProcess(&model.Actor{AccountType: model.AccountAdmin}, nil))
}

func TestApproveCenterOwnerScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.insertRedemption(t, 7, f.rewardAt[3].ID, model.RedemptionPending)
	other := f.insertRedemption(t, 8, f.rewardAt[4].ID, model.RedemptionPending)

	red, err := f.svc.Approve(ctx, 7, f.owner3.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RedemptionApproved, red.Status)

	_, err = f.svc.Approve(ctx, 8, f.owner3.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	var authErr *apperr.AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, f.owner3.ID, authErr.ActorID)

	if diff := cmp.Diff(other, f.get(t, 8)); diff != "" {
		t.Errorf("unauthorized approve mutated redemption (-want +got):\n%s", diff)
	}
	assert.Empty(t, f.ledgerEntries(t, 8))
}

func TestApproveDebitsLedgerExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.insertRedemption(t, 1, f.rewardAt[1].ID, model.RedemptionPending)
	before := time.Now().Add(-time.Second)

	red, err := f.svc.Approve(ctx, 1, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RedemptionApproved, red.Status)
	require.NotNil(t, red.ProcessedBy)
	assert.Equal(t, f.admin.ID, *red.ProcessedBy)
	require.NotNil(t, red.ProcessedAt)
	assert.True(t, red.ProcessedAt.After(before), "processed_at %v not after %v", red.ProcessedAt, before)

	entries := f.ledgerEntries(t, 1)
	require.Len(t, entries, 1)
	assert.Equal(t, -50, entries[0].Points)
	assert.Equal(t, model.SourceRedemption, entries[0].Source)
	assert.Equal(t, f.customer.ID, entries[0].UserID)

	// Retrying is rejected and does not re-apply the debit.
	_, err = f.svc.Approve(ctx, 1, f.admin.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Len(t, f.ledgerEntries(t, 1), 1)

	bal, err := f.ledger.Balance(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 450, bal.Balance)
}

func TestConcurrentApproveDebitsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.insertRedemption(t, 1, f.rewardAt[1].ID, model.RedemptionPending)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(ctx, 1, f.admin.ID)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, f.ledgerEntries(t, 1), 1)
}

func TestDecisionsOnProcessedRedemptionLeaveItUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, status := range []model.RedemptionStatus{model.RedemptionApproved, model.RedemptionRejected} {
		id := int64(i + 1)
		want := f.insertRedemption(t, id, f.rewardAt[1].ID, status)

		_, err := f.svc.Approve(ctx, id, f.admin.ID)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "approve %s", status)

		_, err = f.svc.Reject(ctx, id, f.admin.ID, "changed my mind")
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "reject %s", status)

		if diff := cmp.Diff(want, f.get(t, id)); diff != "" {
			t.Errorf("%s redemption changed (-want +got):\n%s", status, diff)
		}
		assert.Empty(t, f.ledgerEntries(t, id))
	}
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	want := f.insertRedemption(t, 1, f.rewardAt[1].ID, model.RedemptionPending)

	for _, reason := range []string{"", "   "} {
		_, err := f.svc.Reject(ctx, 1, f.admin.ID, reason)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	if diff := cmp.Diff(want, f.get(t, 1)); diff != "" {
		t.Errorf("redemption changed (-want +got):\n%s", diff)
	}
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.insertRedemption(t, 1, f.rewardAt[3].ID, model.RedemptionPending)

	red, err := f.svc.Reject(ctx, 1, f.owner3.ID, "  not eligible  ")
	require.NoError(t, err)
	assert.Equal(t, model.RedemptionRejected, red.Status)
	assert.Equal(t, "not eligible", red.Notes)
	require.NotNil(t, red.ProcessedBy)
	assert.Equal(t, f.owner3.ID, *red.ProcessedBy)
	assert.NotNil(t, red.ProcessedAt)
	assert.Empty(t, f.ledgerEntries(t, 1))
}

func TestUnauthorizedActorsNeverMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	want := f.insertRedemption(t, 1, f.rewardAt[3].ID, model.RedemptionPending)

	for name, actorID := range map[string]int64{
		"standard user":   f.customer.ID,
		"other owner":     f.owner4.ID,
		"unknown user id": 9999,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Approve(ctx, 1, actorID)
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
			_, err = f.svc.Reject(ctx, 1, actorID, "no")
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
			assert.ErrorIs(t, f.svc.Delete(ctx, 1, actorID), apperr.ErrUnauthorized)
		})
	}

	if diff := cmp.Diff(want, f.get(t, 1)); diff != "" {
		t.Errorf("redemption changed (-want +got):\n%s", diff)
	}
	assert.Empty(t, f.ledgerEntries(t, 1))
}

func TestApproveNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), 404, f.admin.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Reject(context.Background(), 404, f.admin.ID, "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApproveStockTracking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	one := 1
	r := f.rewardAt[1]
	r.Quantity = &one
	_, err := f.rewards.Update(*r)
	require.NoError(t, err)

	f.insertRedemption(t, 1, r.ID, model.RedemptionPending)
	f.insertRedemption(t, 2, r.ID, model.RedemptionPending)

	_, err = f.svc.Approve(ctx, 1, f.admin.ID)
	require.NoError(t, err)
	got, err := f.rewards.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Quantity)
	assert.Equal(t, 0, *got.Quantity)

	// Out of stock rolls the whole approval back.
	_, err = f.svc.Approve(ctx, 2, f.admin.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "out of stock")
	assert.Equal(t, model.RedemptionPending, f.get(t, 2).Status)
	assert.Empty(t, f.ledgerEntries(t, 2))
}

func TestBulkApproveSkipsNonPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.insertRedemption(t, 1, f.rewardAt[3].ID, model.RedemptionPending)
	approved := f.insertRedemption(t, 2, f.rewardAt[3].ID, model.RedemptionApproved)
	rejected := f.insertRedemption(t, 3, f.rewardAt[3].ID, model.RedemptionRejected)
	f.insertRedemption(t, 4, f.rewardAt[3].ID, model.RedemptionPending)
	foreign := f.insertRedemption(t, 5, f.rewardAt[4].ID, model.RedemptionPending)

	res, err := f.svc.BulkApprove(ctx, []int64{1, 2, 3, 4, 5, 1, 404}, f.owner3.ID)
	require.NoError(t, err)

	var processed []int64
	for _, r := range res.Processed {
		processed = append(processed, r.ID)
		assert.Equal(t, model.RedemptionApproved, r.Status)
	}
	assert.Equal(t, []int64{1, 4}, processed)
	assert.Equal(t, []int64{2, 3}, res.Skipped)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, int64(5), res.Failed[0].ID)
	assert.Equal(t, int64(404), res.Failed[1].ID)

	if diff := cmp.Diff(approved, f.get(t, 2)); diff != "" {
		t.Errorf("approved member changed:\n%s", diff)
	}
	if diff := cmp.Diff(rejected, f.get(t, 3)); diff != "" {
		t.Errorf("rejected member changed:\n%s", diff)
	}
	if diff := cmp.Diff(foreign, f.get(t, 5)); diff != "" {
		t.Errorf("foreign member changed:\n%s", diff)
	}
	assert.Len(t, f.ledgerEntries(t, 1), 1)
	assert.Len(t, f.ledgerEntries(t, 4), 1)
	assert.Empty(t, f.ledgerEntries(t, 2))
}

func TestBulkReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.insertRedemption(t, 1, f.rewardAt[1].ID, model.RedemptionPending)
	f.insertRedemption(t, 2, f.rewardAt[2].ID, model.RedemptionApproved)

	_, err := f.svc.BulkReject(ctx, []int64{1, 2}, f.admin.ID, " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, model.RedemptionPending, f.get(t, 1).Status)

	res, err := f.svc.BulkReject(ctx, []int64{1, 2}, f.admin.ID, "season closed")
	require.NoError(t, err)
	require.Len(t, res.Processed, 1)
	assert.Equal(t, "season closed", res.Processed[0].Notes)
	assert.Equal(t, []int64{2}, res.Skipped)
	assert.Empty(t, res.Failed)
}

func TestBulkStopsOnCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.insertRedemption(t, 1, f.rewardAt[1].ID, model.RedemptionPending)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.BulkApprove(ctx, []int64{1}, f.admin.ID)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, model.RedemptionPending, f.get(t, 1).Status)
}

func TestRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	red, err := f.svc.Request(ctx, f.customer.ID, f.rewardAt[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.RedemptionPending, red.Status)
	assert.Equal(t, 50, red.PointsCost)
	assert.Nil(t, red.ProcessedBy)
	assert.Empty(t, f.ledgerEntries(t, red.ID))
}

func TestRequestChecksAvailablePoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.rewardAt[1]
	r.PointsCost = 300
	_, err := f.rewards.Update(*r)
	require.NoError(t, err)

	_, err = f.svc.Request(ctx, f.customer.ID, r.ID)
	require.NoError(t, err)

	// 500 earned, 300 pending: a second request does not fit.
	_, err = f.svc.Request(ctx, f.customer.ID, r.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "insufficient points")
}

func TestRequestRejectsUnavailableReward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inactive := f.rewardAt[1]
	inactive.Active = false
	_, err := f.rewards.Update(*inactive)
	require.NoError(t, err)

	expired := f.rewardAt[2]
	past := time.Now().Add(-time.Hour)
	expired.ExpiresAt = &past
	_, err = f.rewards.Update(*expired)
	require.NoError(t, err)

	empty := f.rewardAt[3]
	zero := 0
	empty.Quantity = &zero
	_, err = f.rewards.Update(*empty)
	require.NoError(t, err)

	for _, id := range []int64{inactive.ID, expired.ID, empty.ID} {
		_, err := f.svc.Request(ctx, f.customer.ID, id)
		assert.ErrorIs(t, err, apperr.ErrValidation, "reward %d", id)
	}

	_, err = f.svc.Request(ctx, f.customer.ID, 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.Request(ctx, 404, f.rewardAt[4].ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRequestAutoApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.settings.Set(model.SettingAutoApproveMaxPoints, "50"))

	red, err := f.svc.Request(ctx, f.customer.ID, f.rewardAt[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.RedemptionApproved, red.Status)
	assert.Nil(t, red.ProcessedBy)
	assert.NotNil(t, red.ProcessedAt)
	assert.Len(t, f.ledgerEntries(t, red.ID), 1)

	// Above the threshold stays pending.
	r := f.rewardAt[2]
	r.PointsCost = 51
	_, err = f.rewards.Update(*r)
	require.NoError(t, err)
	red, err = f.svc.Request(ctx, f.customer.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RedemptionPending, red.Status)
}

func TestDeletePendingOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.insertRedemption(t, 1, f.rewardAt[3].ID, model.RedemptionPending)
	f.insertRedemption(t, 2, f.rewardAt[3].ID, model.RedemptionApproved)

	assert.ErrorIs(t, f.svc.Delete(ctx, 2, f.admin.ID), apperr.ErrInvalidTransition)
	assert.Equal(t, model.RedemptionApproved, f.get(t, 2).Status)

	require.NoError(t, f.svc.Delete(ctx, 1, f.owner3.ID))
	got, err := f.rewards.GetRedemption(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, f.svc.Delete(ctx, 1, f.admin.ID), apperr.ErrNotFound)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.insertRedemption(t, 1, f.rewardAt[3].ID, model.RedemptionPending)
	f.insertRedemption(t, 2, f.rewardAt[4].ID, model.RedemptionPending)
	f.insertRedemption(t, 3, f.rewardAt[3].ID, model.RedemptionApproved)

	all, err := f.svc.List(ctx, f.admin.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.svc.List(ctx, f.owner3.ID, model.RedemptionPending)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), mine[0].ID)

	_, err = f.svc.List(ctx, f.customer.ID, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = f.svc.List(ctx, f.admin.ID, "archived")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestNotificationsAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.insertRedemption(t, 1, f.rewardAt[1].ID, model.RedemptionPending)
	f.insertRedemption(t, 2, f.rewardAt[1].ID, model.RedemptionPending)

	_, err := f.svc.Approve(ctx, 1, f.admin.ID)
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, 2, f.admin.ID, "duplicate")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, 2, f.admin.ID)
	require.Error(t, err)

	require.Len(t, f.events, 2)
	assert.Equal(t, "redemption_approved", f.events[0].Type())
	assert.Equal(t, f.customer.ID, f.events[0].UserID)
	assert.Equal(t, "Voucher", f.events[0].String("reward_title"))
	assert.Equal(t, "redemption_rejected", f.events[1].Type())
	assert.Equal(t, "duplicate", f.events[1].String("notes"))
}

func TestNotifierFailureDoesNotFailDecision(t *testing.T) {
	f := newFixture(t)
	f.svc.notifier = notify.Func(func(context.Context, notify.Event) error {
		return errors.New("smtp down")
	})
	f.insertRedemption(t, 1, f.rewardAt[1].ID, model.RedemptionPending)

	red, err := f.svc.Approve(context.Background(), 1, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RedemptionApproved, red.Status)
}

func TestBulkReportsForeignProcessedAsFailed(t *testing.T) {
	f := newFixture(t)
	foreign := f.insertRedemption(t, 1, f.rewardAt[4].ID, model.RedemptionApproved)
	f.insertRedemption(t, 2, f.rewardAt[3].ID, model.RedemptionApproved)

	res, err := f.svc.BulkApprove(context.Background(), []int64{1, 2}, f.owner3.ID)
	require.NoError(t, err)

	// Authorization is decided before the pending check, so another
	// center's redemption is never reported as skipped.
	assert.Empty(t, res.Processed)
	assert.Equal(t, []int64{2}, res.Skipped)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, int64(1), res.Failed[0].ID)
	assert.Contains(t, res.Failed[0].Error, "may not approve")
	if diff := cmp.Diff(foreign, f.get(t, 1)); diff != "" {
		t.Errorf("foreign member changed:\n%s", diff)
	}
}

func TestServiceLogsComponentOnce(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("component", "redemption")
	svc := NewService(f.db, notify.Nop{}, logger)
	f.insertRedemption(t, 1, f.rewardAt[1].ID, model.RedemptionPending)

	_, err := svc.Reject(context.Background(), 1, f.admin.ID, "duplicate")
	require.NoError(t, err)

	line := buf.String()
	require.Contains(t, line, "redemption rejected")
	assert.Equal(t, 1, strings.Count(line, `"component"`), line)
}
