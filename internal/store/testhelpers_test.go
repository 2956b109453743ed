package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/greenpoints/internal/database"
	"github.com/dukerupert/greenpoints/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustUser(t *testing.T, us *UserStore, email string, typ model.AccountType) *model.User {
	t.Helper()
	u, err := us.Create(email, email, typ, "")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustCenter(t *testing.T, cs *CenterStore, name string, status model.CenterStatus, ownerID *int64) *model.RecyclingCenter {
	t.Helper()
	c, err := cs.Create(model.RecyclingCenter{Name: name, Status: status, OwnerID: ownerID})
	if err != nil {
		t.Fatalf("create center %s: %v", name, err)
	}
	return c
}
