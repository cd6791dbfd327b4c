package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"

	"budget-web/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAccountStore mimics the repository contract: FindByCode returns
// sql.ErrNoRows for unknown codes and a detached copy otherwise, so writes
// only land through Create/Update.
type fakeAccountStore struct {
	accounts   map[string]*models.BudgetAccount
	failCreate map[string]error
	nextID     int
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		accounts:   make(map[string]*models.BudgetAccount),
		failCreate: make(map[string]error),
	}
}

func (f *fakeAccountStore) FindByCode(code string) (*models.BudgetAccount, error) {
	stored, ok := f.accounts[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (f *fakeAccountStore) Create(account *models.BudgetAccount) error {
	if err := f.failCreate[account.Code]; err != nil {
		return err
	}
	f.nextID++
	account.ID = f.nextID
	clone := *account
	f.accounts[account.Code] = &clone
	return nil
}

func (f *fakeAccountStore) Update(account *models.BudgetAccount) error {
	clone := *account
	f.accounts[account.Code] = &clone
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestReconcileInsertsNewAccounts(t *testing.T) {
	store := newFakeAccountStore()
	reconciler := NewReconciler(store, testLogger())

	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("410.1", "Residential Water", 350000),
	}

	summary, err := reconciler.Reconcile(context.Background(), accounts, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 0, summary.Failed)
	assert.Len(t, store.accounts, 2)
}

func TestReconcileMergesExistingAccount(t *testing.T) {
	store := newFakeAccountStore()
	existing := testAccount("410", "Old Name", 1)
	existing.ID = 7
	existing.ActualAmount = decimal.NewFromInt(123)
	existing.IsActive = false
	store.accounts["410"] = existing

	water := models.FundWater
	incoming := testAccount("410", "Water Revenue", 999)
	incoming.Fund = &water

	reconciler := NewReconciler(store, testLogger())
	summary, err := reconciler.Reconcile(context.Background(), []*models.BudgetAccount{incoming}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 0, summary.Inserted)

	stored := store.accounts["410"]
	assert.Equal(t, 7, stored.ID)
	assert.Equal(t, "Water Revenue", stored.Name)
	assert.True(t, stored.BudgetedAmount.Equal(decimal.NewFromInt(999)))
	assert.True(t, stored.ActualAmount.Equal(decimal.NewFromInt(123)), "actuals must survive reconciliation")
	assert.True(t, stored.IsActive)
	require.NotNil(t, stored.Fund)
	assert.Equal(t, models.FundWater, *stored.Fund)
}

func TestReconcileContinuesAfterFailure(t *testing.T) {
	store := newFakeAccountStore()
	store.failCreate["500"] = errors.New("column too long")

	reconciler := NewReconciler(store, testLogger())
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("500", "Sewer Operations", 275000),
		testAccount("600", "Trash Collection", 80000),
	}

	summary, err := reconciler.Reconcile(context.Background(), accounts, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "500", summary.Failures[0].Code)
	assert.Contains(t, summary.Failures[0].Reason, "column too long")
	assert.Len(t, store.accounts, 2)
}

func TestReconcileWritesValidationFlaggedRecords(t *testing.T) {
	store := newFakeAccountStore()
	reconciler := NewReconciler(store, testLogger())

	// Validation verdicts gate the pipeline upstream; the reconciler itself
	// persists whatever it is handed.
	negative := testAccount("410", "Water Revenue", 0)
	negative.BudgetedAmount = decimal.NewFromInt(-100)

	summary, err := reconciler.Reconcile(context.Background(), []*models.BudgetAccount{negative}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	stored := store.accounts["410"]
	require.NotNil(t, stored)
	assert.True(t, stored.BudgetedAmount.Equal(decimal.NewFromInt(-100)))
}

func TestReconcileCanceledContextStopsBatch(t *testing.T) {
	store := newFakeAccountStore()
	reconciler := NewReconciler(store, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := reconciler.Reconcile(ctx, []*models.BudgetAccount{testAccount("410", "Water Revenue", 500000)}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Processed)
	assert.Empty(t, store.accounts)
}

func TestReconcileReportsCompletion(t *testing.T) {
	store := newFakeAccountStore()
	reconciler := NewReconciler(store, testLogger())

	var percents []int
	progress := func(percent int, message string) {
		percents = append(percents, percent)
	}

	_, err := reconciler.Reconcile(context.Background(), []*models.BudgetAccount{testAccount("410", "Water Revenue", 500000)}, progress)

	require.NoError(t, err)
	require.NotEmpty(t, percents)
	assert.Equal(t, 100, percents[len(percents)-1])
}
