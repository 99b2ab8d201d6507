package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/bryanwahyu/design-alchemist/internal/domain/account"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	const q = `
INSERT INTO accounts (id, email, password_hash, created_at)
VALUES (?,?,?,?);
`
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q, a.ID, strings.ToLower(a.Email), a.PasswordHash, created)
	if isDuplicate(err) {
		return account.ErrDuplicateEmail
	}
	return err
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	const q = `
SELECT id, email, password_hash, created_at
FROM accounts WHERE email=? LIMIT 1;
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, strings.ToLower(email)))
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*account.Account, error) {
	const q = `
SELECT id, email, password_hash, created_at
FROM accounts WHERE id=? LIMIT 1;
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *AccountRepository) scanOne(row *sql.Row) (*account.Account, error) {
	var a account.Account
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
