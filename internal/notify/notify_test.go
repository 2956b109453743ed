package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/greenpoints/internal/email"
	"github.com/dukerupert/greenpoints/internal/logging"
	"github.com/dukerupert/greenpoints/internal/model"
)

func TestEventAccessors(t *testing.T) {
	e := Event{Entity: "redemption", Action: "approved", Extra: map[string]any{
		"reward_title": "Tote",
		"points_cost":  int64(40),
		"decoded":      float64(3),
	}}
	if e.Type() != "redemption_approved" {
		t.Errorf("Type() = %q", e.Type())
	}
	if e.String("reward_title") != "Tote" {
		t.Errorf("String = %q", e.String("reward_title"))
	}
	if e.Int("points_cost") != 40 || e.Int("decoded") != 3 || e.Int("missing") != 0 {
		t.Errorf("Int values = %d %d %d", e.Int("points_cost"), e.Int("decoded"), e.Int("missing"))
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	var calls int
	ok := Func(func(context.Context, Event) error { calls++; return nil })
	boom := errors.New("boom")
	bad := Func(func(context.Context, Event) error { calls++; return boom })

	err := Multi{ok, nil, bad, ok}.Notify(context.Background(), Event{})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if err := (Multi{ok, Nop{}}).Notify(context.Background(), Event{}); err != nil {
		t.Errorf("err = %v, want nil", err)
	}
}

type fakeMailer struct {
	configured bool
	// block, when set, holds every send until it is closed.
	block chan struct{}

	mu     sync.Mutex
	sent   []email.RedemptionDecision
	to     []string
	ctxErr []error
}

func (m *fakeMailer) Configured() bool { return m.configured }

func (m *fakeMailer) SendRedemptionDecision(ctx context.Context, to string, d email.RedemptionDecision) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to)
	m.sent = append(m.sent, d)
	m.ctxErr = append(m.ctxErr, ctx.Err())
	return nil
}

type fakeUsers map[int64]*model.User

func (f fakeUsers) GetByID(id int64) (*model.User, error) { return f[id], nil }

type fakeFlags map[string]bool

func (f fakeFlags) GetBool(key string, def bool) (bool, error) {
	if v, ok := f[key]; ok {
		return v, nil
	}
	return def, nil
}

func TestEmailNotifierSendsDecision(t *testing.T) {
	mailer := &fakeMailer{configured: true}
	users := fakeUsers{5: {ID: 5, Email: "ana@example.com", Name: "Ana"}}
	n := NewEmailNotifier(mailer, users, fakeFlags{}, logging.Discard())

	err := n.Notify(context.Background(), Event{
		Entity: "redemption", Action: "rejected", ID: 7, UserID: 5,
		Extra: map[string]any{"reward_title": "Tote", "points_cost": 40, "notes": "out of season"},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	n.Wait()
	if len(mailer.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(mailer.sent))
	}
	got := mailer.sent[0]
	if mailer.to[0] != "ana@example.com" || got.Approved || got.Reason != "out of season" || got.PointsCost != 40 {
		t.Errorf("decision = %+v to %s", got, mailer.to[0])
	}
}

func TestEmailNotifierSkips(t *testing.T) {
	users := fakeUsers{5: {ID: 5, Email: "ana@example.com"}}
	approved := Event{Entity: "redemption", Action: "approved", ID: 7, UserID: 5}

	tests := []struct {
		name   string
		mailer *fakeMailer
		flags  fakeFlags
		event  Event
	}{
		{"unconfigured", &fakeMailer{}, fakeFlags{}, approved},
		{"disabled by setting", &fakeMailer{configured: true}, fakeFlags{model.SettingEmailNotifications: false}, approved},
		{"other event", &fakeMailer{configured: true}, fakeFlags{}, Event{Entity: "redemption", Action: "requested", UserID: 5}},
		{"unknown user", &fakeMailer{configured: true}, fakeFlags{}, Event{Entity: "redemption", Action: "approved", UserID: 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewEmailNotifier(tt.mailer, users, tt.flags, logging.Discard())
			if err := n.Notify(context.Background(), tt.event); err != nil {
				t.Fatalf("notify: %v", err)
			}
			n.Wait()
			if len(tt.mailer.sent) != 0 {
				t.Errorf("sent = %d, want 0", len(tt.mailer.sent))
			}
		})
	}
}

func TestEmailNotifierDoesNotBlockCaller(t *testing.T) {
	mailer := &fakeMailer{configured: true, block: make(chan struct{})}
	users := fakeUsers{5: {ID: 5, Email: "ana@example.com"}}
	n := NewEmailNotifier(mailer, users, fakeFlags{}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- n.Notify(ctx, Event{Entity: "redemption", Action: "approved", ID: 7, UserID: 5})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("notify: %v", err)
		}
	case <-time.After(2 * time.Second):
		close(mailer.block)
		t.Fatal("Notify waited for the mailer")
	}

	// The request ending must not abort a delivery already queued.
	cancel()
	close(mailer.block)
	n.Wait()

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if len(mailer.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(mailer.sent))
	}
	if mailer.ctxErr[0] != nil {
		t.Errorf("delivery context err = %v, want nil", mailer.ctxErr[0])
	}
}
