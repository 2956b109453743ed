package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/greenpoints/internal/model"
)

type CenterStore struct {
	db DBTX
}

func NewCenterStore(db DBTX) *CenterStore {
	return &CenterStore{db: db}
}

func scanCenter(sc scanner) (*model.RecyclingCenter, error) {
	var c model.RecyclingCenter
	var ownerID sql.NullInt64
	var lat, lng sql.NullFloat64

	err := sc.Scan(&c.ID, &c.Name, &c.Address, &c.City, &c.Phone, &c.Email,
		&ownerID, &c.Status, &lat, &lng, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.OwnerID = int64Ptr(ownerID)
	c.Latitude = floatPtr(lat)
	c.Longitude = floatPtr(lng)
	return &c, nil
}

const centerCols = `id, name, address, city, phone, email, owner_id, status, latitude, longitude, created_at, updated_at`

func (s *CenterStore) Create(c model.RecyclingCenter) (*model.RecyclingCenter, error) {
	if c.Status == "" {
		c.Status = model.CenterPending
	}
	result, err := s.db.Exec(
		`INSERT INTO recycling_centers (name, address, city, phone, email, owner_id, status, latitude, longitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Address, c.City, c.Phone, c.Email, nullInt64(c.OwnerID), c.Status,
		nullFloat(c.Latitude), nullFloat(c.Longitude),
	)
	if err != nil {
		return nil, fmt.Errorf("insert center: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CenterStore) GetByID(id int64) (*model.RecyclingCenter, error) {
	row := s.db.QueryRow(`SELECT `+centerCols+` FROM recycling_centers WHERE id = ?`, id)
	c, err := scanCenter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get center: %w", err)
	}
	return c, nil
}

func (s *CenterStore) GetByOwner(ownerID int64) (*model.RecyclingCenter, error) {
	row := s.db.QueryRow(`SELECT `+centerCols+` FROM recycling_centers WHERE owner_id = ?`, ownerID)
	c, err := scanCenter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get center by owner: %w", err)
	}
	return c, nil
}

// List returns all centers ordered by name.
func (s *CenterStore) List() ([]model.RecyclingCenter, error) {
	rows, err := s.db.Query(`SELECT ` + centerCols + ` FROM recycling_centers ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list centers: %w", err)
	}
	return collectCenters(rows)
}

// ListByStatus returns centers in the given status ordered by id.
func (s *CenterStore) ListByStatus(ctx context.Context, status model.CenterStatus) ([]model.RecyclingCenter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+centerCols+` FROM recycling_centers WHERE status = ? ORDER BY id ASC`, status)
	if err != nil {
		return nil, fmt.Errorf("list centers by status: %w", err)
	}
	return collectCenters(rows)
}

func collectCenters(rows *sql.Rows) ([]model.RecyclingCenter, error) {
	defer rows.Close()

	var centers []model.RecyclingCenter
	for rows.Next() {
		c, err := scanCenter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan center: %w", err)
		}
		centers = append(centers, *c)
	}
	return centers, rows.Err()
}

func (s *CenterStore) Update(c model.RecyclingCenter) (*model.RecyclingCenter, error) {
	_, err := s.db.Exec(
		`UPDATE recycling_centers
		 SET name = ?, address = ?, city = ?, phone = ?, email = ?, owner_id = ?, latitude = ?, longitude = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Address, c.City, c.Phone, c.Email, nullInt64(c.OwnerID),
		nullFloat(c.Latitude), nullFloat(c.Longitude), time.Now().UTC(), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update center: %w", err)
	}
	return s.GetByID(c.ID)
}

func (s *CenterStore) SetStatus(id int64, status model.CenterStatus) (*model.RecyclingCenter, error) {
	_, err := s.db.Exec(
		`UPDATE recycling_centers SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set center status: %w", err)
	}
	return s.GetByID(id)
}

func (s *CenterStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM recycling_centers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete center: %w", err)
	}
	return nil
}
