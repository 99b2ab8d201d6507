package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bryanwahyu/design-alchemist/internal/domain/quota"
)

type QuotaRepository struct {
	db *sql.DB
}

func NewQuotaRepository(db *sql.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// Get returns zero usage for users without a row
func (r *QuotaRepository) Get(ctx context.Context, userID string) (quota.Usage, error) {
	const q = `
SELECT user_id, analyses_count, is_paid, updated_at
FROM usage_quota
WHERE user_id=? LIMIT 1;
`
	var u quota.Usage
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&u.UserID, &u.Count, &u.IsPaid, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return quota.Usage{UserID: userID}, nil
	}
	if err != nil {
		return quota.Usage{}, err
	}
	return u, nil
}

// Reserve makes sure the row exists, then takes a slot with a guarded UPDATE.
// The row lock held by the UPDATE serializes concurrent reservations.
func (r *QuotaRepository) Reserve(ctx context.Context, userID string, limit int) (quota.Usage, bool, error) {
	const ensure = `
INSERT INTO usage_quota (user_id, analyses_count, is_paid, updated_at)
VALUES (?,0,0,?)
ON DUPLICATE KEY UPDATE user_id=user_id;
`
	const take = `
UPDATE usage_quota
SET analyses_count=analyses_count+1, updated_at=?
WHERE user_id=? AND is_paid=0 AND analyses_count<?;
`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, ensure, userID, now); err != nil {
		return quota.Usage{}, false, err
	}
	res, err := r.db.ExecContext(ctx, take, now, userID, limit)
	if err != nil {
		return quota.Usage{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return quota.Usage{}, false, err
	}
	u, err := r.Get(ctx, userID)
	if err != nil {
		return quota.Usage{}, false, err
	}
	return u, n == 1 || u.IsPaid, nil
}

// Release undoes one reservation, never below zero
func (r *QuotaRepository) Release(ctx context.Context, userID string) (quota.Usage, error) {
	const q = `
UPDATE usage_quota
SET analyses_count=analyses_count-1, updated_at=?
WHERE user_id=? AND analyses_count>0;
`
	if _, err := r.db.ExecContext(ctx, q, time.Now().UTC(), userID); err != nil {
		return quota.Usage{}, err
	}
	return r.Get(ctx, userID)
}

// Upgrade flags the user as paid, creating the row when needed
func (r *QuotaRepository) Upgrade(ctx context.Context, userID string) (quota.Usage, error) {
	const q = `
INSERT INTO usage_quota (user_id, analyses_count, is_paid, updated_at)
VALUES (?,0,1,?)
ON DUPLICATE KEY UPDATE
  is_paid=1, updated_at=VALUES(updated_at);
`
	if _, err := r.db.ExecContext(ctx, q, userID, time.Now().UTC()); err != nil {
		return quota.Usage{}, err
	}
	return r.Get(ctx, userID)
}
