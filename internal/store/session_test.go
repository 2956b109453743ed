package store

import (
	"testing"
	"time"

	"github.com/dukerupert/greenpoints/internal/model"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *UserStore) {
	t.Helper()
	db := setupTestDB(t)
	return NewSessionStore(db), NewUserStore(db)
}

func TestSessionCreate(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	u := mustUser(t, us, "alice@example.com", model.AccountAdmin)

	sess, err := ss.Create(u.ID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != u.ID {
		t.Errorf("user_id = %d, want %d", sess.UserID, u.ID)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Errorf("expires_at = %v, want future", sess.ExpiresAt)
	}
}

func TestSessionGetByToken(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	u := mustUser(t, us, "alice@example.com", model.AccountAdmin)
	created, _ := ss.Create(u.ID, time.Hour)

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.ID != created.ID {
		t.Errorf("id = %d, want %d", sess.ID, created.ID)
	}

	sess, err = ss.GetByToken("nonexistent")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for nonexistent token")
	}
}

func TestSessionExpired(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	u := mustUser(t, us, "alice@example.com", model.AccountAdmin)

	expired, _ := ss.Create(u.ID, -time.Minute)
	live, _ := ss.Create(u.ID, time.Hour)

	sess, err := ss.GetByToken(expired.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for expired session")
	}

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	if sess, _ := ss.GetByToken(live.Token); sess == nil {
		t.Error("live session should survive cleanup")
	}
}

func TestSessionDeleteByToken(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	u := mustUser(t, us, "alice@example.com", model.AccountAdmin)
	created, _ := ss.Create(u.ID, time.Hour)

	if err := ss.DeleteByToken(created.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if sess != nil {
		t.Error("expected nil after delete")
	}
}
