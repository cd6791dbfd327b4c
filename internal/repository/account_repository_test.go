package repository

import (
	"database/sql"
	"testing"
	"time"

	"budget-web/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func testBudgetAccount(code, name string) *models.BudgetAccount {
	fund := models.FundSewer
	class := models.FundClassProprietary
	return &models.BudgetAccount{
		Code:           code,
		Name:           name,
		AccountType:    models.AccountTypeExpense,
		Fund:           &fund,
		FundClass:      &class,
		BudgetedAmount: decimal.NewFromInt(760000),
		IsActive:       true,
	}
}

func accountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "code", "name", "account_type", "fund", "fund_class",
		"budgeted_amount", "actual_amount", "is_active", "parent_code",
		"created_at", "updated_at",
	})
}

func TestAccountRepositoryFindByCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM budget_accounts").
		WithArgs("410.1").
		WillReturnRows(accountRows().
			AddRow(7, "410.1", "Residential Water Sales", "revenue", "water", "proprietary",
				"825000.00", "812400.55", true, "410", now, now))

	account, err := repo.FindByCode("410.1")
	require.NoError(t, err)
	assert.Equal(t, 7, account.ID)
	assert.Equal(t, "410.1", account.Code)
	assert.Equal(t, "Residential Water Sales", account.Name)
	require.NotNil(t, account.Fund)
	assert.Equal(t, "water", string(*account.Fund))
	require.NotNil(t, account.ParentCode)
	assert.Equal(t, "410", *account.ParentCode)
	assert.True(t, account.BudgetedAmount.Equal(decimal.RequireFromString("825000.00")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryFindByCodeMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery("FROM budget_accounts").
		WithArgs("999").
		WillReturnRows(accountRows())

	account, err := repo.FindByCode("999")
	assert.Nil(t, account)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryCreateAssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectExec("INSERT INTO budget_accounts").
		WillReturnResult(sqlmock.NewResult(42, 1))

	account := testBudgetAccount("520", "Sewer Operations")
	require.NoError(t, repo.Create(account))
	assert.Equal(t, 42, account.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryFindAllWithSearch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM budget_accounts`).
		WithArgs("%water%", "%water%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("FROM budget_accounts WHERE code LIKE").
		WithArgs("%water%", "%water%", 25, 0).
		WillReturnRows(accountRows().
			AddRow(1, "410", "Water Sales Revenue", "revenue", "water", "proprietary", "1250000", "0", true, nil, now, now).
			AddRow(2, "410.1", "Residential Water Sales", "revenue", "water", "proprietary", "825000", "0", true, "410", now, now))

	accounts, total, err := repo.FindAll(25, 0, "water")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, accounts, 2)
	assert.Equal(t, "410", accounts[0].Code)
	assert.Nil(t, accounts[0].ParentCode)
	assert.Equal(t, "410.1", accounts[1].Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryGetTotals(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total_accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"total_accounts", "active_accounts", "total_budget", "total_actual"}).
			AddRow(12, 10, "5000000", "4200000"))

	totals, err := repo.GetTotals()
	require.NoError(t, err)
	assert.Equal(t, 12, totals.TotalAccounts)
	assert.Equal(t, 10, totals.ActiveAccounts)
	assert.True(t, totals.TotalBudget.Equal(decimal.NewFromInt(5000000)))
	assert.True(t, totals.TotalActual.Equal(decimal.NewFromInt(4200000)))

	assert.NoError(t, mock.ExpectationsWereMet())
}
