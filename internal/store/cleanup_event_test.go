package store

import (
	"testing"
	"time"

	"github.com/dukerupert/greenpoints/internal/model"
)

func TestCleanupEventCRUD(t *testing.T) {
	db := setupTestDB(t)
	es := NewCleanupEventStore(db)
	center := mustCenter(t, NewCenterStore(db), "Depot", model.CenterApproved, nil)

	start := time.Date(2026, 4, 22, 9, 0, 0, 0, time.UTC)
	limit := 30
	e, err := es.Create(model.CleanupEvent{
		CenterID:        center.ID,
		Title:           "Beach cleanup",
		Location:        "North beach",
		StartsAt:        start,
		EndsAt:          start.Add(3 * time.Hour),
		PointsReward:    75,
		MaxParticipants: &limit,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if e.Status != model.EventScheduled {
		t.Errorf("status = %q, want scheduled", e.Status)
	}
	if !e.StartsAt.Equal(start) {
		t.Errorf("starts_at = %v, want %v", e.StartsAt, start)
	}
	if e.MaxParticipants == nil || *e.MaxParticipants != 30 {
		t.Errorf("max_participants = %v, want 30", e.MaxParticipants)
	}

	e.Status = model.EventCompleted
	e.MaxParticipants = nil
	updated, err := es.Update(*e)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != model.EventCompleted || updated.MaxParticipants != nil {
		t.Errorf("updated = %+v", updated)
	}

	if err := es.Delete(e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := es.GetByID(e.ID); got != nil {
		t.Error("expected nil after delete")
	}
}

func TestCleanupEventListRange(t *testing.T) {
	db := setupTestDB(t)
	es := NewCleanupEventStore(db)
	center := mustCenter(t, NewCenterStore(db), "Depot", model.CenterApproved, nil)

	day := func(d int) time.Time { return time.Date(2026, 5, d, 10, 0, 0, 0, time.UTC) }
	for _, d := range []int{1, 10, 20} {
		if _, err := es.Create(model.CleanupEvent{CenterID: center.ID, Title: "Cleanup", StartsAt: day(d), EndsAt: day(d).Add(2 * time.Hour)}); err != nil {
			t.Fatalf("create event: %v", err)
		}
	}

	events, err := es.ListRange(day(5), day(15))
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event in range, got %d", len(events))
	}
	if !events[0].StartsAt.Equal(day(10)) {
		t.Errorf("starts_at = %v, want %v", events[0].StartsAt, day(10))
	}

	all, err := es.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 events, got %d", len(all))
	}
}
