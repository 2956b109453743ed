package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/greenpoints/internal/model"
)

type CleanupEventStore struct {
	db DBTX
}

func NewCleanupEventStore(db DBTX) *CleanupEventStore {
	return &CleanupEventStore{db: db}
}

func scanCleanupEvent(sc scanner) (*model.CleanupEvent, error) {
	var e model.CleanupEvent
	var maxParticipants sql.NullInt64

	err := sc.Scan(&e.ID, &e.CenterID, &e.Title, &e.Description, &e.Location,
		&e.StartsAt, &e.EndsAt, &e.PointsReward, &maxParticipants, &e.Status, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.MaxParticipants = intPtr(maxParticipants)
	return &e, nil
}

const cleanupEventCols = `id, center_id, title, description, location, starts_at, ends_at, points_reward, max_participants, status, created_at`

func (s *CleanupEventStore) Create(e model.CleanupEvent) (*model.CleanupEvent, error) {
	if e.Status == "" {
		e.Status = model.EventScheduled
	}
	result, err := s.db.Exec(
		`INSERT INTO cleanup_events (center_id, title, description, location, starts_at, ends_at, points_reward, max_participants, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CenterID, e.Title, e.Description, e.Location, e.StartsAt.UTC(), e.EndsAt.UTC(),
		e.PointsReward, nullInt(e.MaxParticipants), e.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("insert cleanup event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CleanupEventStore) GetByID(id int64) (*model.CleanupEvent, error) {
	row := s.db.QueryRow(`SELECT `+cleanupEventCols+` FROM cleanup_events WHERE id = ?`, id)
	e, err := scanCleanupEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cleanup event: %w", err)
	}
	return e, nil
}

func (s *CleanupEventStore) List() ([]model.CleanupEvent, error) {
	rows, err := s.db.Query(`SELECT ` + cleanupEventCols + ` FROM cleanup_events ORDER BY starts_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cleanup events: %w", err)
	}
	return collectCleanupEvents(rows)
}

// ListRange returns events overlapping [from, to), for the calendar view.
func (s *CleanupEventStore) ListRange(from, to time.Time) ([]model.CleanupEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+cleanupEventCols+` FROM cleanup_events
		 WHERE starts_at < ? AND ends_at > ?
		 ORDER BY starts_at ASC`,
		to.UTC(), from.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list cleanup events in range: %w", err)
	}
	return collectCleanupEvents(rows)
}

func collectCleanupEvents(rows *sql.Rows) ([]model.CleanupEvent, error) {
	defer rows.Close()

	var events []model.CleanupEvent
	for rows.Next() {
		e, err := scanCleanupEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cleanup event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *CleanupEventStore) Update(e model.CleanupEvent) (*model.CleanupEvent, error) {
	_, err := s.db.Exec(
		`UPDATE cleanup_events
		 SET center_id = ?, title = ?, description = ?, location = ?, starts_at = ?, ends_at = ?,
		     points_reward = ?, max_participants = ?, status = ?
		 WHERE id = ?`,
		e.CenterID, e.Title, e.Description, e.Location, e.StartsAt.UTC(), e.EndsAt.UTC(),
		e.PointsReward, nullInt(e.MaxParticipants), e.Status, e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update cleanup event: %w", err)
	}
	return s.GetByID(e.ID)
}

func (s *CleanupEventStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM cleanup_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete cleanup event: %w", err)
	}
	return nil
}
