package mysql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/design-alchemist/internal/domain/account"
	"github.com/bryanwahyu/design-alchemist/internal/domain/ledger"
)

func newMock(t *testing.T) (*QuotaRepository, *AccountRepository, *LedgerRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewQuotaRepository(db), NewAccountRepository(db), NewLedgerRepository(db), mock
}

func TestQuotaGetMissingUser(t *testing.T) {
	quota, _, _, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM usage_quota")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "analyses_count", "is_paid", "updated_at"}))

	u, err := quota.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.Zero(t, u.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaReserve(t *testing.T) {
	cols := []string{"user_id", "analyses_count", "is_paid", "updated_at"}
	cases := map[string]struct {
		affected int64
		paid     bool
		count    int
		want     bool
	}{
		"slot taken":   {affected: 1, count: 2, want: true},
		"limit hit":    {affected: 0, count: 3, want: false},
		"paid account": {affected: 0, paid: true, count: 7, want: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			quota, _, _, mock := newMock(t)
			mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE user_id=user_id")).
				WithArgs("u1", sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(regexp.QuoteMeta("analyses_count<?")).
				WithArgs(sqlmock.AnyArg(), "u1", 3).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectQuery(regexp.QuoteMeta("FROM usage_quota")).
				WithArgs("u1").
				WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", tc.count, tc.paid, time.Now()))

			u, ok, err := quota.Reserve(context.Background(), "u1", 3)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
			assert.Equal(t, tc.count, u.Count)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQuotaRelease(t *testing.T) {
	quota, _, _, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("analyses_count=analyses_count-1")).
		WithArgs(sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM usage_quota")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "analyses_count", "is_paid", "updated_at"}).
			AddRow("u1", 1, false, time.Now()))

	u, err := quota.Release(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaUpgrade(t *testing.T) {
	quota, _, _, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("is_paid=1")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM usage_quota")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "analyses_count", "is_paid", "updated_at"}).
			AddRow("u1", 3, true, time.Now()))

	u, err := quota.Upgrade(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, u.IsPaid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountCreateDuplicate(t *testing.T) {
	_, accounts, _, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs("a1", "ada@example.com", "hash", sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := accounts.Create(context.Background(), &account.Account{ID: "a1", Email: "Ada@Example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountFindByEmailNotFound(t *testing.T) {
	_, accounts, _, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE email=?")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}))

	_, err := accounts.FindByEmail(context.Background(), "ADA@example.com")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestLedgerSaveAndPaginate(t *testing.T) {
	_, _, ledgers, mock := newMock(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analysis_ledger")).
		WithArgs("e1", "-", "success", "", 2, 1, "", created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM analysis_ledger")).
		WithArgs("u1", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "message", "flaw_count", "improvement_count", "report_url", "created_at"}).
			AddRow("e1", "u1", "success", "", 2, 1, "", created))

	require.NoError(t, ledgers.Save(context.Background(), &ledger.Entry{
		ID: "e1", Status: ledger.StatusSuccess, FlawCount: 2, ImprovementCount: 1, CreatedAt: created,
	}))
	list, err := ledgers.Paginate(context.Background(), "u1", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ledger.StatusSuccess, list[0].Status)
	assert.Equal(t, 2, list[0].FlawCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	stmts := statements(schema)
	require.Len(t, stmts, 3)
	for _, table := range []string{"accounts", "usage_quota", "analysis_ledger"} {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + table)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}
