package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/greenpoints/internal/model"
)

type MaterialStore struct {
	db DBTX
}

func NewMaterialStore(db DBTX) *MaterialStore {
	return &MaterialStore{db: db}
}

// --- Material methods ---

func scanMaterial(sc scanner) (*model.Material, error) {
	var m model.Material
	var active int
	if err := sc.Scan(&m.ID, &m.Name, &m.Unit, &m.DefaultPoints, &active); err != nil {
		return nil, err
	}
	m.Active = active != 0
	return &m, nil
}

const materialCols = `id, name, unit, default_points, is_active`

func (s *MaterialStore) Create(name, unit string, defaultPoints int, active bool) (*model.Material, error) {
	result, err := s.db.Exec(
		`INSERT INTO materials (name, unit, default_points, is_active) VALUES (?, ?, ?, ?)`,
		name, unit, defaultPoints, boolToInt(active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert material: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(context.Background(), id)
}

func (s *MaterialStore) GetByID(ctx context.Context, id int64) (*model.Material, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+materialCols+` FROM materials WHERE id = ?`, id)
	m, err := scanMaterial(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

func (s *MaterialStore) List() ([]model.Material, error) {
	return s.list(context.Background(), `SELECT `+materialCols+` FROM materials ORDER BY name ASC`)
}

func (s *MaterialStore) ListActive(ctx context.Context) ([]model.Material, error) {
	return s.list(ctx, `SELECT `+materialCols+` FROM materials WHERE is_active = 1 ORDER BY name ASC`)
}

func (s *MaterialStore) list(ctx context.Context, query string) ([]model.Material, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var materials []model.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, *m)
	}
	return materials, rows.Err()
}

func (s *MaterialStore) Update(id int64, name, unit string, defaultPoints int, active bool) (*model.Material, error) {
	_, err := s.db.Exec(
		`UPDATE materials SET name = ?, unit = ?, default_points = ?, is_active = ? WHERE id = ?`,
		name, unit, defaultPoints, boolToInt(active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update material: %w", err)
	}
	return s.GetByID(context.Background(), id)
}

func (s *MaterialStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM materials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}

// --- Point config methods ---

func scanPointConfig(sc scanner) (*model.MaterialPointConfig, error) {
	var c model.MaterialPointConfig
	var enabled int
	err := sc.Scan(&c.ID, &c.CenterID, &c.MaterialID, &c.Points, &enabled, &c.Multiplier, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Enabled = enabled != 0
	return &c, nil
}

const pointConfigCols = `id, center_id, material_id, points, is_enabled, multiplier, updated_at`

// UpsertPointConfig writes the (center, material) row, replacing every
// column of an existing row. No merge with prior values.
func (s *MaterialStore) UpsertPointConfig(ctx context.Context, centerID, materialID int64, points int, enabled bool, multiplier float64) (*model.MaterialPointConfig, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO material_point_configs (center_id, material_id, points, is_enabled, multiplier, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(center_id, material_id) DO UPDATE SET
		   points = excluded.points,
		   is_enabled = excluded.is_enabled,
		   multiplier = excluded.multiplier,
		   updated_at = excluded.updated_at`,
		centerID, materialID, points, boolToInt(enabled), multiplier, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert point config: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+pointConfigCols+` FROM material_point_configs WHERE center_id = ? AND material_id = ?`,
		centerID, materialID,
	)
	c, err := scanPointConfig(row)
	if err != nil {
		return nil, fmt.Errorf("read upserted point config: %w", err)
	}
	return c, nil
}

func (s *MaterialStore) GetPointConfig(id int64) (*model.MaterialPointConfig, error) {
	row := s.db.QueryRow(`SELECT `+pointConfigCols+` FROM material_point_configs WHERE id = ?`, id)
	c, err := scanPointConfig(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get point config: %w", err)
	}
	return c, nil
}

func (s *MaterialStore) GetPointConfigFor(centerID, materialID int64) (*model.MaterialPointConfig, error) {
	row := s.db.QueryRow(
		`SELECT `+pointConfigCols+` FROM material_point_configs WHERE center_id = ? AND material_id = ?`,
		centerID, materialID,
	)
	c, err := scanPointConfig(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get point config: %w", err)
	}
	return c, nil
}

func (s *MaterialStore) ListPointConfigsByCenter(centerID int64) ([]model.MaterialPointConfig, error) {
	rows, err := s.db.Query(
		`SELECT `+pointConfigCols+` FROM material_point_configs WHERE center_id = ? ORDER BY material_id ASC`,
		centerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list point configs: %w", err)
	}
	defer rows.Close()

	var configs []model.MaterialPointConfig
	for rows.Next() {
		c, err := scanPointConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan point config: %w", err)
		}
		configs = append(configs, *c)
	}
	return configs, rows.Err()
}

func (s *MaterialStore) UpdatePointConfig(id int64, points int, enabled bool, multiplier float64) (*model.MaterialPointConfig, error) {
	_, err := s.db.Exec(
		`UPDATE material_point_configs SET points = ?, is_enabled = ?, multiplier = ?, updated_at = ? WHERE id = ?`,
		points, boolToInt(enabled), multiplier, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update point config: %w", err)
	}
	return s.GetPointConfig(id)
}

// --- Bonus config methods ---

func scanBonusConfig(sc scanner) (*model.BonusConfig, error) {
	var b model.BonusConfig
	var centerID sql.NullInt64
	var startsAt, endsAt sql.NullTime
	var active int
	err := sc.Scan(&b.ID, &centerID, &b.Name, &b.BonusPoints, &startsAt, &endsAt, &active)
	if err != nil {
		return nil, err
	}
	b.CenterID = int64Ptr(centerID)
	b.StartsAt = timePtr(startsAt)
	b.EndsAt = timePtr(endsAt)
	b.Active = active != 0
	return &b, nil
}

const bonusConfigCols = `id, center_id, name, bonus_points, starts_at, ends_at, is_active`

func (s *MaterialStore) CreateBonusConfig(b model.BonusConfig) (*model.BonusConfig, error) {
	result, err := s.db.Exec(
		`INSERT INTO bonus_configs (center_id, name, bonus_points, starts_at, ends_at, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		nullInt64(b.CenterID), b.Name, b.BonusPoints, nullTime(b.StartsAt), nullTime(b.EndsAt), boolToInt(b.Active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert bonus config: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+bonusConfigCols+` FROM bonus_configs WHERE id = ?`, id)
	return scanBonusConfig(row)
}

func (s *MaterialStore) ListBonusConfigs() ([]model.BonusConfig, error) {
	rows, err := s.db.Query(`SELECT ` + bonusConfigCols + ` FROM bonus_configs ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list bonus configs: %w", err)
	}
	defer rows.Close()

	var configs []model.BonusConfig
	for rows.Next() {
		b, err := scanBonusConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bonus config: %w", err)
		}
		configs = append(configs, *b)
	}
	return configs, rows.Err()
}

func (s *MaterialStore) DeleteBonusConfig(id int64) error {
	_, err := s.db.Exec(`DELETE FROM bonus_configs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bonus config: %w", err)
	}
	return nil
}
