package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/greenpoints/internal/model"
)

// LedgerStore reads and appends points transactions. There is no update or
// delete: corrections are new adjustment entries.
type LedgerStore struct {
	db DBTX
}

func NewLedgerStore(db DBTX) *LedgerStore {
	return &LedgerStore{db: db}
}

// WithTx returns a copy of the store that runs every query on tx.
func (s *LedgerStore) WithTx(tx DBTX) *LedgerStore {
	return &LedgerStore{db: tx}
}

func scanTransaction(sc scanner) (*model.PointsTransaction, error) {
	var t model.PointsTransaction
	var refType sql.NullString
	var refID sql.NullInt64

	err := sc.Scan(&t.ID, &t.UserID, &t.Points, &t.Source, &refType, &refID, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if refType.Valid {
		t.ReferenceType = &refType.String
	}
	t.ReferenceID = int64Ptr(refID)
	return &t, nil
}

const transactionCols = `id, user_id, points, source, reference_type, reference_id, description, created_at`

// Record appends an entry. A second entry for the same (source, reference)
// violates the unique reference index and fails.
func (s *LedgerStore) Record(ctx context.Context, t model.PointsTransaction) (*model.PointsTransaction, error) {
	var refType sql.NullString
	if t.ReferenceType != nil {
		refType = sql.NullString{String: *t.ReferenceType, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO points_transactions (user_id, points, source, reference_type, reference_id, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Points, t.Source, refType, nullInt64(t.ReferenceID), t.Description, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert points transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM points_transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

// ListByUser returns a user's entries, newest first.
func (s *LedgerStore) ListByUser(ctx context.Context, userID int64) ([]model.PointsTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionCols+` FROM points_transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list points transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.PointsTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan points transaction: %w", err)
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

// ListByReference returns the entries pointing at one originating record.
func (s *LedgerStore) ListByReference(ctx context.Context, refType string, refID int64) ([]model.PointsTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionCols+` FROM points_transactions WHERE reference_type = ? AND reference_id = ? ORDER BY id ASC`,
		refType, refID,
	)
	if err != nil {
		return nil, fmt.Errorf("list points transactions by reference: %w", err)
	}
	defer rows.Close()

	var txns []model.PointsTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan points transaction: %w", err)
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

// Balance sums a user's ledger: credits are earned, debits are spent.
func (s *LedgerStore) Balance(ctx context.Context, userID int64) (*model.PointBalance, error) {
	var earned, spent int
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN points > 0 THEN points ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN points < 0 THEN -points ELSE 0 END), 0)
		 FROM points_transactions WHERE user_id = ?`,
		userID,
	).Scan(&earned, &spent)
	if err != nil {
		return nil, fmt.Errorf("sum points: %w", err)
	}

	return &model.PointBalance{
		UserID:      userID,
		TotalEarned: earned,
		TotalSpent:  spent,
		Balance:     earned - spent,
	}, nil
}
