package service

import (
	"fmt"
	"testing"

	"budget-web/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAccountsCleanSet(t *testing.T) {
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("410.1", "Residential Water", 350000),
	}

	result := ValidateAccounts(accounts)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateAccountsDuplicateCodes(t *testing.T) {
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("410.1", "Residential Water", 350000),
		testAccount("410.1", "Residential Water", 350000),
	}

	result := ValidateAccounts(accounts)

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Duplicate account numbers")
	assert.Contains(t, result.Errors[0], "410.1")
}

func TestValidateAccountsDuplicateExamplesCapped(t *testing.T) {
	var accounts []*models.BudgetAccount
	for i := 1; i <= 7; i++ {
		code := fmt.Sprintf("%d00", i)
		accounts = append(accounts, testAccount(code, "Dup", 100), testAccount(code, "Dup", 100))
	}

	result := ValidateAccounts(accounts)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "100, 200, 300, 400, 500")
	assert.Contains(t, result.Errors[0], "and 2 more")
	assert.NotContains(t, result.Errors[0], "600")
}

func TestValidateAccountsMalformedCode(t *testing.T) {
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("abc", "Oddball", 100),
	}

	result := ValidateAccounts(accounts)

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "1 account number(s)")
}

func TestValidateAccountsNegativeAmount(t *testing.T) {
	account := testAccount("410", "Water Revenue", 0)
	account.BudgetedAmount = decimal.NewFromInt(-100)

	result := ValidateAccounts([]*models.BudgetAccount{account})

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "negative budget amount")
}

func TestValidateAccountsMissingDescription(t *testing.T) {
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("411", "   ", 100),
	}

	result := ValidateAccounts(accounts)

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "missing a description")
}

func TestValidateAccountsAccumulatesInOrder(t *testing.T) {
	negative := testAccount("500", "Sewer Operations", 0)
	negative.BudgetedAmount = decimal.NewFromInt(-50)
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("410", "Water Revenue", 500000),
		testAccount("abc", "Oddball", 100),
		negative,
		testAccount("411", "", 100),
	}

	result := ValidateAccounts(accounts)

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "Duplicate account numbers")
	assert.Contains(t, result.Errors[1], "not valid dotted codes")
	assert.Contains(t, result.Errors[2], "negative budget amount")
	assert.Contains(t, result.Errors[3], "missing a description")
}

func TestValidateAccountsMonotonicity(t *testing.T) {
	negative := testAccount("500", "Sewer Operations", 0)
	negative.BudgetedAmount = decimal.NewFromInt(-100)
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		negative,
	}

	before := ValidateAccounts(accounts)
	require.Len(t, before.Errors, 1)

	accounts = append(accounts, testAccount("410", "Water Revenue", 500000))
	after := ValidateAccounts(accounts)

	assert.False(t, after.IsValid)
	require.Len(t, after.Errors, 2)
	assert.Contains(t, after.Errors, before.Errors[0])
	assert.Contains(t, after.Errors[0], "Duplicate account numbers")
}

func TestValidateAccountsDoesNotMutate(t *testing.T) {
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("410.1", "Residential Water", 350000),
	}
	BuildHierarchy(accounts)

	ValidateAccounts(accounts)

	require.NotNil(t, accounts[1].ParentCode)
	assert.Equal(t, "410", *accounts[1].ParentCode)
	assert.Equal(t, "Water Revenue", accounts[0].Name)
}
