package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/bryanwahyu/design-alchemist/internal/domain/ledger"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Save inserts or updates a ledger entry
func (r *LedgerRepository) Save(ctx context.Context, e *ledger.Entry) error {
	const q = `
INSERT INTO analysis_ledger
  (id, user_id, status, message, flaw_count, improvement_count, report_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status,
  message=EXCLUDED.message,
  report_url=EXCLUDED.report_url;
`
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q, e.ID, stringOrDash(e.UserID), stringOrDash(string(e.Status)),
		e.Message, e.FlawCount, e.ImprovementCount, e.ReportURL, createdAt)
	return err
}

// Paginate returns a page of entries ordered by created_at desc
func (r *LedgerRepository) Paginate(ctx context.Context, userID string, page, pageSize int) ([]*ledger.Entry, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, user_id, status, message, flaw_count, improvement_count, report_url, created_at
FROM analysis_ledger
WHERE user_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.db.QueryContext(ctx, q, userID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*ledger.Entry{}
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Status, &e.Message,
			&e.FlawCount, &e.ImprovementCount, &e.ReportURL, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
