package postgres

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

func (r *QuotaRepository) Get(ctx context.Context, userID string) (quota.Usage, error) {
	const q = `
SELECT user_id, analyses_count, is_paid, updated_at
FROM usage_quota
WHERE user_id=$1 LIMIT 1;`
	u, err := scanUsage(r.db.QueryRowContext(ctx, q, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return quota.Usage{UserID: userID}, nil
	}
	return u, err
}

// Reserve takes a free-tier slot with a guarded UPDATE. No row comes back when
// the user is paid or out of slots.
func (r *QuotaRepository) Reserve(ctx context.Context, userID string, limit int) (quota.Usage, bool, error) {
	const ensure = `
INSERT INTO usage_quota (user_id, analyses_count, is_paid, updated_at)
VALUES ($1, 0, FALSE, $2)
ON CONFLICT (user_id) DO NOTHING;`
	const take = `
UPDATE usage_quota
SET analyses_count = analyses_count + 1, updated_at = $2
WHERE user_id = $1 AND NOT is_paid AND analyses_count < $3
RETURNING user_id, analyses_count, is_paid, updated_at;`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, ensure, userID, now); err != nil {
		return quota.Usage{}, false, err
	}
	u, err := scanUsage(r.db.QueryRowContext(ctx, take, userID, now, limit))
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return quota.Usage{}, false, err
	}
	u, err = r.Get(ctx, userID)
	if err != nil {
		return quota.Usage{}, false, err
	}
	return u, u.IsPaid, nil
}

func (r *QuotaRepository) Release(ctx context.Context, userID string) (quota.Usage, error) {
	const q = `
UPDATE usage_quota
SET analyses_count = analyses_count - 1, updated_at = $2
WHERE user_id = $1 AND analyses_count > 0
RETURNING user_id, analyses_count, is_paid, updated_at;`
	u, err := scanUsage(r.db.QueryRowContext(ctx, q, userID, time.Now().UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return r.Get(ctx, userID)
	}
	return u, err
}

func (r *QuotaRepository) Upgrade(ctx context.Context, userID string) (quota.Usage, error) {
	const q = `
INSERT INTO usage_quota (user_id, analyses_count, is_paid, updated_at)
VALUES ($1, 0, TRUE, $2)
ON CONFLICT (user_id) DO UPDATE SET
  is_paid = TRUE,
  updated_at = EXCLUDED.updated_at
RETURNING user_id, analyses_count, is_paid, updated_at;`
	return scanUsage(r.db.QueryRowContext(ctx, q, userID, time.Now().UTC()))
}

func scanUsage(row *sql.Row) (quota.Usage, error) {
	var u quota.Usage
	if err := row.Scan(&u.UserID, &u.Count, &u.IsPaid, &u.UpdatedAt); err != nil {
		return quota.Usage{}, err
	}
	return u, nil
}
