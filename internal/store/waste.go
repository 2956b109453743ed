package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/greenpoints/internal/model"
)

type WasteStore struct {
	db DBTX
}

func NewWasteStore(db DBTX) *WasteStore {
	return &WasteStore{db: db}
}

// --- Waste type methods ---

func scanWasteType(sc scanner) (*model.WasteType, error) {
	var wt model.WasteType
	var active int
	if err := sc.Scan(&wt.ID, &wt.Name, &wt.Description, &active); err != nil {
		return nil, err
	}
	wt.Active = active != 0
	return &wt, nil
}

const wasteTypeCols = `id, name, description, is_active`

func (s *WasteStore) CreateType(name, description string, active bool) (*model.WasteType, error) {
	result, err := s.db.Exec(
		`INSERT INTO waste_types (name, description, is_active) VALUES (?, ?, ?)`,
		name, description, boolToInt(active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert waste type: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetType(id)
}

func (s *WasteStore) GetType(id int64) (*model.WasteType, error) {
	row := s.db.QueryRow(`SELECT `+wasteTypeCols+` FROM waste_types WHERE id = ?`, id)
	wt, err := scanWasteType(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get waste type: %w", err)
	}
	return wt, nil
}

func (s *WasteStore) ListTypes() ([]model.WasteType, error) {
	rows, err := s.db.Query(`SELECT ` + wasteTypeCols + ` FROM waste_types ORDER BY is_active DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list waste types: %w", err)
	}
	defer rows.Close()

	var types []model.WasteType
	for rows.Next() {
		wt, err := scanWasteType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waste type: %w", err)
		}
		types = append(types, *wt)
	}
	return types, rows.Err()
}

func (s *WasteStore) UpdateType(id int64, name, description string, active bool) (*model.WasteType, error) {
	_, err := s.db.Exec(
		`UPDATE waste_types SET name = ?, description = ?, is_active = ? WHERE id = ?`,
		name, description, boolToInt(active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update waste type: %w", err)
	}
	return s.GetType(id)
}

// DeleteType removes the type and, through the foreign key, its items.
func (s *WasteStore) DeleteType(id int64) error {
	_, err := s.db.Exec(`DELETE FROM waste_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete waste type: %w", err)
	}
	return nil
}

// --- Waste item methods ---

func scanWasteItem(sc scanner) (*model.WasteItem, error) {
	var wi model.WasteItem
	var recyclable int
	if err := sc.Scan(&wi.ID, &wi.WasteTypeID, &wi.Name, &wi.Description, &recyclable); err != nil {
		return nil, err
	}
	wi.Recyclable = recyclable != 0
	return &wi, nil
}

const wasteItemCols = `id, waste_type_id, name, description, recyclable`

func (s *WasteStore) CreateItem(wasteTypeID int64, name, description string, recyclable bool) (*model.WasteItem, error) {
	result, err := s.db.Exec(
		`INSERT INTO waste_items (waste_type_id, name, description, recyclable) VALUES (?, ?, ?, ?)`,
		wasteTypeID, name, description, boolToInt(recyclable),
	)
	if err != nil {
		return nil, fmt.Errorf("insert waste item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetItem(id)
}

func (s *WasteStore) GetItem(id int64) (*model.WasteItem, error) {
	row := s.db.QueryRow(`SELECT `+wasteItemCols+` FROM waste_items WHERE id = ?`, id)
	wi, err := scanWasteItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get waste item: %w", err)
	}
	return wi, nil
}

func (s *WasteStore) ListItems(wasteTypeID int64) ([]model.WasteItem, error) {
	rows, err := s.db.Query(
		`SELECT `+wasteItemCols+` FROM waste_items WHERE waste_type_id = ? ORDER BY name ASC`,
		wasteTypeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list waste items: %w", err)
	}
	defer rows.Close()

	var items []model.WasteItem
	for rows.Next() {
		wi, err := scanWasteItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waste item: %w", err)
		}
		items = append(items, *wi)
	}
	return items, rows.Err()
}

func (s *WasteStore) UpdateItem(id int64, name, description string, recyclable bool) (*model.WasteItem, error) {
	_, err := s.db.Exec(
		`UPDATE waste_items SET name = ?, description = ?, recyclable = ? WHERE id = ?`,
		name, description, boolToInt(recyclable), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update waste item: %w", err)
	}
	return s.GetItem(id)
}

func (s *WasteStore) DeleteItem(id int64) error {
	_, err := s.db.Exec(`DELETE FROM waste_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete waste item: %w", err)
	}
	return nil
}
