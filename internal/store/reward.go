package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/greenpoints/internal/model"
)

type RewardStore struct {
	db DBTX
}

func NewRewardStore(db DBTX) *RewardStore {
	return &RewardStore{db: db}
}

// WithTx returns a copy of the store that runs every query on tx.
func (s *RewardStore) WithTx(tx DBTX) *RewardStore {
	return &RewardStore{db: tx}
}

// --- Reward methods ---

func scanReward(sc scanner) (*model.Reward, error) {
	var r model.Reward
	var active, featured int
	var quantity sql.NullInt64
	var expiresAt sql.NullTime

	err := sc.Scan(&r.ID, &r.CenterID, &r.Title, &r.Description, &r.PointsCost,
		&active, &featured, &quantity, &expiresAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Active = active != 0
	r.Featured = featured != 0
	r.Quantity = intPtr(quantity)
	r.ExpiresAt = timePtr(expiresAt)
	return &r, nil
}

const rewardCols = `id, center_id, title, description, points_cost, is_active, is_featured, quantity, expires_at, created_at`

func (s *RewardStore) Create(r model.Reward) (*model.Reward, error) {
	result, err := s.db.Exec(
		`INSERT INTO rewards (center_id, title, description, points_cost, is_active, is_featured, quantity, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CenterID, r.Title, r.Description, r.PointsCost, boolToInt(r.Active), boolToInt(r.Featured),
		nullInt(r.Quantity), nullTime(r.ExpiresAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(context.Background(), id)
}

func (s *RewardStore) GetByID(ctx context.Context, id int64) (*model.Reward, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns rewards, active first, then by title. A non-nil centerID
// restricts the result to that center.
func (s *RewardStore) List(centerID *int64) ([]model.Reward, error) {
	var rows *sql.Rows
	var err error
	if centerID != nil {
		rows, err = s.db.Query(
			`SELECT `+rewardCols+` FROM rewards WHERE center_id = ? ORDER BY is_active DESC, title ASC`,
			*centerID,
		)
	} else {
		rows, err = s.db.Query(`SELECT ` + rewardCols + ` FROM rewards ORDER BY is_active DESC, title ASC`)
	}
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(r model.Reward) (*model.Reward, error) {
	_, err := s.db.Exec(
		`UPDATE rewards
		 SET title = ?, description = ?, points_cost = ?, is_active = ?, is_featured = ?, quantity = ?, expires_at = ?
		 WHERE id = ?`,
		r.Title, r.Description, r.PointsCost, boolToInt(r.Active), boolToInt(r.Featured),
		nullInt(r.Quantity), nullTime(r.ExpiresAt), r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(context.Background(), r.ID)
}

func (s *RewardStore) ToggleActive(id int64) (*model.Reward, error) {
	_, err := s.db.Exec(`UPDATE rewards SET is_active = 1 - is_active WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("toggle reward: %w", err)
	}
	return s.GetByID(context.Background(), id)
}

// Delete removes a reward. It fails with a foreign key error while
// redemptions still reference the reward.
func (s *RewardStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

func (s *RewardStore) CountRedemptions(rewardID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reward_redemptions WHERE reward_id = ?`, rewardID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count redemptions: %w", err)
	}
	return n, nil
}

// DecrementQuantity takes one unit from a stock-tracked reward. It reports
// false when the reward is out of stock. Rewards with unlimited quantity
// are left untouched and report true.
func (s *RewardStore) DecrementQuantity(ctx context.Context, rewardID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE rewards SET quantity = quantity - 1
		 WHERE id = ? AND quantity IS NOT NULL AND quantity > 0`,
		rewardID,
	)
	if err != nil {
		return false, fmt.Errorf("decrement reward quantity: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	var quantity sql.NullInt64
	err = s.db.QueryRowContext(ctx, `SELECT quantity FROM rewards WHERE id = ?`, rewardID).Scan(&quantity)
	if err != nil {
		return false, fmt.Errorf("read reward quantity: %w", err)
	}
	return !quantity.Valid, nil
}

// --- Redemption methods ---

func scanRedemption(sc scanner) (*model.RewardRedemption, error) {
	var r model.RewardRedemption
	var processedBy sql.NullInt64
	var processedAt sql.NullTime

	err := sc.Scan(&r.ID, &r.UserID, &r.RewardID, &r.PointsCost, &r.Status, &r.Notes,
		&processedBy, &processedAt, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.ProcessedBy = int64Ptr(processedBy)
	r.ProcessedAt = timePtr(processedAt)
	return &r, nil
}

const redemptionCols = `id, user_id, reward_id, points_cost, status, notes, processed_by, processed_at, created_at`

// CreateRedemption inserts a pending redemption with the reward's cost
// captured at request time.
func (s *RewardStore) CreateRedemption(ctx context.Context, userID, rewardID int64, pointsCost int) (*model.RewardRedemption, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO reward_redemptions (user_id, reward_id, points_cost, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, rewardID, pointsCost, model.RedemptionPending, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRedemption(ctx, id)
}

func (s *RewardStore) GetRedemption(ctx context.Context, id int64) (*model.RewardRedemption, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+redemptionCols+` FROM reward_redemptions WHERE id = ?`, id)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

// RedemptionFilter narrows ListRedemptions. Zero values match everything.
type RedemptionFilter struct {
	Status   model.RedemptionStatus
	CenterID *int64
	UserID   *int64
}

// ListRedemptions returns redemptions newest first.
func (s *RewardStore) ListRedemptions(ctx context.Context, f RedemptionFilter) ([]model.RewardRedemption, error) {
	query := `SELECT r.id, r.user_id, r.reward_id, r.points_cost, r.status, r.notes, r.processed_by, r.processed_at, r.created_at
		 FROM reward_redemptions r
		 JOIN rewards w ON w.id = r.reward_id
		 WHERE 1 = 1`
	var args []any
	if f.Status != "" {
		query += ` AND r.status = ?`
		args = append(args, f.Status)
	}
	if f.CenterID != nil {
		query += ` AND w.center_id = ?`
		args = append(args, *f.CenterID)
	}
	if f.UserID != nil {
		query += ` AND r.user_id = ?`
		args = append(args, *f.UserID)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []model.RewardRedemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}

// MarkProcessed moves a pending redemption to status. It reports false,
// without writing, when the redemption is no longer pending.
func (s *RewardStore) MarkProcessed(ctx context.Context, id int64, status model.RedemptionStatus, processedBy *int64, notes *string, at time.Time) (bool, error) {
	var result sql.Result
	var err error
	if notes != nil {
		result, err = s.db.ExecContext(ctx,
			`UPDATE reward_redemptions SET status = ?, processed_by = ?, processed_at = ?, notes = ?
			 WHERE id = ? AND status = ?`,
			status, nullInt64(processedBy), at.UTC(), *notes, id, model.RedemptionPending,
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE reward_redemptions SET status = ?, processed_by = ?, processed_at = ?
			 WHERE id = ? AND status = ?`,
			status, nullInt64(processedBy), at.UTC(), id, model.RedemptionPending,
		)
	}
	if err != nil {
		return false, fmt.Errorf("mark redemption %s: %w", status, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// PendingCost sums the cost of a user's redemptions awaiting a decision.
func (s *RewardStore) PendingCost(ctx context.Context, userID int64) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(points_cost), 0) FROM reward_redemptions WHERE user_id = ? AND status = ?`,
		userID, model.RedemptionPending,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum pending cost: %w", err)
	}
	return total, nil
}

// DeletePending removes the redemption only while it is pending.
func (s *RewardStore) DeletePending(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM reward_redemptions WHERE id = ? AND status = ?`,
		id, model.RedemptionPending,
	)
	if err != nil {
		return false, fmt.Errorf("delete redemption: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
