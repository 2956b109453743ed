package store

import (
	"context"
	"testing"

	"github.com/dukerupert/greenpoints/internal/model"
)

func TestLedgerBalance(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLedgerStore(db)
	u := mustUser(t, NewUserStore(db), "alice@example.com", model.AccountStandard)
	ctx := context.Background()

	entries := []model.PointsTransaction{
		{UserID: u.ID, Points: 100, Source: model.SourceRecycling, Description: "bottles"},
		{UserID: u.ID, Points: 40, Source: model.SourceBonus},
		{UserID: u.ID, Points: -30, Source: model.SourceAdjustment},
	}
	for _, e := range entries {
		if _, err := ls.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	bal, err := ls.Balance(ctx, u.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.TotalEarned != 140 || bal.TotalSpent != 30 || bal.Balance != 110 {
		t.Errorf("balance = %+v, want earned=140 spent=30 balance=110", bal)
	}

	txns, err := ls.ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txns))
	}
	if txns[0].Points != -30 {
		t.Errorf("newest points = %d, want -30", txns[0].Points)
	}
}

func TestLedgerEmptyBalance(t *testing.T) {
	db := setupTestDB(t)
	u := mustUser(t, NewUserStore(db), "bob@example.com", model.AccountStandard)

	bal, err := NewLedgerStore(db).Balance(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Balance != 0 || bal.TotalEarned != 0 || bal.TotalSpent != 0 {
		t.Errorf("balance = %+v, want zero", bal)
	}
}

func TestLedgerReferenceIsUnique(t *testing.T) {
	db := setupTestDB(t)
	ls := NewLedgerStore(db)
	u := mustUser(t, NewUserStore(db), "alice@example.com", model.AccountStandard)
	ctx := context.Background()

	refType := model.RefRewardRedemption
	refID := int64(7)
	entry := model.PointsTransaction{
		UserID:        u.ID,
		Points:        -50,
		Source:        model.SourceRedemption,
		ReferenceType: &refType,
		ReferenceID:   &refID,
	}

	got, err := ls.Record(ctx, entry)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if got.ReferenceType == nil || *got.ReferenceType != refType {
		t.Errorf("reference_type = %v, want %q", got.ReferenceType, refType)
	}
	if got.ReferenceID == nil || *got.ReferenceID != refID {
		t.Errorf("reference_id = %v, want %d", got.ReferenceID, refID)
	}

	if _, err := ls.Record(ctx, entry); err == nil {
		t.Fatal("expected unique violation for second entry with same reference")
	}

	refs, err := ls.ListByReference(ctx, refType, refID)
	if err != nil {
		t.Fatalf("list by reference: %v", err)
	}
	if len(refs) != 1 {
		t.Errorf("expected 1 entry for reference, got %d", len(refs))
	}
}

func TestLedgerRejectsUnknownSource(t *testing.T) {
	db := setupTestDB(t)
	u := mustUser(t, NewUserStore(db), "alice@example.com", model.AccountStandard)

	_, err := NewLedgerStore(db).Record(context.Background(), model.PointsTransaction{UserID: u.ID, Points: 1, Source: "gift"})
	if err == nil {
		t.Fatal("expected check constraint error for unknown source")
	}
}
