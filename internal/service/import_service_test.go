package service

import (
	"context"
	"testing"

	"budget-web/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImportTestService(store AccountStore, warnRecords int) *ImportService {
	cfg := &config.Config{
		ImportWarnRecords:  warnRecords,
		ImportWarnFileSize: 50 * 1024 * 1024,
	}
	return NewImportService(NewExcelService(), NewReconciler(store, testLogger()), cfg, testLogger())
}

func validWorkbook(t *testing.T) string {
	t.Helper()
	return writeWorkbook(t, [][]interface{}{
		{"Account Number", "Account Name", "Type", "Fund", "Budget Amount"},
		{"410", "Water Revenue", "Revenue", "Water", 500000},
		{"410.1", "Residential Water", "Revenue", "Water", 350000},
		{"410.2", "Commercial Water", "Revenue", "Water", 150000},
	})
}

func duplicateWorkbook(t *testing.T) string {
	t.Helper()
	return writeWorkbook(t, [][]interface{}{
		{"Account Number", "Account Name", "Type", "Fund", "Budget Amount"},
		{"410", "Water Revenue", "Revenue", "Water", 500000},
		{"410.1", "Residential Water", "Revenue", "Water", 350000},
		{"410.1", "Residential Water", "Revenue", "Water", 350000},
	})
}

func TestImportServiceInspect(t *testing.T) {
	svc := newImportTestService(newFakeAccountStore(), 10000)

	preview, err := svc.Inspect(context.Background(), validWorkbook(t))

	require.NoError(t, err)
	assert.Equal(t, 3, preview.TotalRecords)
	assert.True(t, preview.Validation.IsValid)
	assert.False(t, preview.RequiresConfirmation)
	assert.Empty(t, preview.Warnings)
	require.Len(t, preview.PreviewRows, 3)
	assert.Equal(t, "410", preview.PreviewRows[0].Code)
}

func TestImportServiceInspectFlagsWarnings(t *testing.T) {
	svc := newImportTestService(newFakeAccountStore(), 2)

	preview, err := svc.Inspect(context.Background(), duplicateWorkbook(t))

	require.NoError(t, err)
	assert.False(t, preview.Validation.IsValid)
	assert.True(t, preview.RequiresConfirmation)
	require.Len(t, preview.Warnings, 2)
	assert.Contains(t, preview.Warnings[0], "3 records")
	assert.Contains(t, preview.Warnings[1], "1 issue(s)")
}

func TestImportServiceRunCleanFileNeedsNoConfirmation(t *testing.T) {
	store := newFakeAccountStore()
	svc := newImportTestService(store, 10000)

	// A nil Confirm declines every gate; a clean small file asks none.
	summary, validation, err := svc.Run(context.Background(), validWorkbook(t), ImportOptions{})

	require.NoError(t, err)
	assert.True(t, validation.IsValid)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 3, summary.Inserted)
	assert.Len(t, store.accounts, 3)

	stored := store.accounts["410.1"]
	require.NotNil(t, stored)
	require.NotNil(t, stored.ParentCode)
	assert.Equal(t, "410", *stored.ParentCode)
}

func TestImportServiceRunDeclinedAtRecordCountGate(t *testing.T) {
	store := newFakeAccountStore()
	svc := newImportTestService(store, 2)

	_, _, err := svc.Run(context.Background(), validWorkbook(t), ImportOptions{})

	assert.ErrorIs(t, err, ErrImportDeclined)
	assert.Empty(t, store.accounts, "nothing may be written before the gate")
}

func TestImportServiceRunDeclinedAtValidationGate(t *testing.T) {
	store := newFakeAccountStore()
	svc := newImportTestService(store, 10000)

	decline := func(message string) bool { return false }
	_, validation, err := svc.Run(context.Background(), duplicateWorkbook(t), ImportOptions{Confirm: decline})

	assert.ErrorIs(t, err, ErrImportDeclined)
	assert.False(t, validation.IsValid)
	assert.Empty(t, store.accounts)
}

func TestImportServiceRunConfirmedProceeds(t *testing.T) {
	store := newFakeAccountStore()
	svc := newImportTestService(store, 10000)

	var asked []string
	confirm := func(message string) bool {
		asked = append(asked, message)
		return true
	}

	summary, validation, err := svc.Run(context.Background(), duplicateWorkbook(t), ImportOptions{Confirm: confirm})

	require.NoError(t, err)
	assert.False(t, validation.IsValid)
	require.Len(t, asked, 1)
	assert.Contains(t, asked[0], "1 issue(s)")

	// The duplicated code inserts once and merges once.
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Updated)
	assert.Len(t, store.accounts, 2)
}

func TestImportServiceRunProgressScaled(t *testing.T) {
	svc := newImportTestService(newFakeAccountStore(), 10000)

	var percents []int
	progress := func(percent int, message string) {
		percents = append(percents, percent)
	}

	_, _, err := svc.Run(context.Background(), validWorkbook(t), ImportOptions{Progress: progress})

	require.NoError(t, err)
	assert.Equal(t, []int{50, 100}, percents, "parsing tops out at 50, reconciliation at 100")
}

func TestImportServiceRunHeaderNotFound(t *testing.T) {
	svc := newImportTestService(newFakeAccountStore(), 10000)
	path := writeWorkbook(t, [][]interface{}{
		{"Name", "Amount"},
		{"Water", 100},
	})

	_, _, err := svc.Run(context.Background(), path, ImportOptions{})

	assert.ErrorIs(t, err, ErrHeaderNotFound)
}
