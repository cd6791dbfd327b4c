package service

import (
	"testing"

	"budget-web/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount(code, name string, amount int64) *models.BudgetAccount {
	return &models.BudgetAccount{
		Code:           code,
		Name:           name,
		AccountType:    models.AccountTypeRevenue,
		BudgetedAmount: decimal.NewFromInt(amount),
		IsActive:       true,
	}
}

func TestBuildHierarchyLinksChildrenToParents(t *testing.T) {
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("410.1", "Residential Water", 350000),
		testAccount("410.2", "Commercial Water", 150000),
	}

	BuildHierarchy(accounts)

	assert.Nil(t, accounts[0].ParentCode)
	require.NotNil(t, accounts[1].ParentCode)
	assert.Equal(t, "410", *accounts[1].ParentCode)
	require.NotNil(t, accounts[2].ParentCode)
	assert.Equal(t, "410", *accounts[2].ParentCode)

	require.Len(t, accounts[0].Children, 2)
	assert.Same(t, accounts[1], accounts[0].Children[0])
	assert.Same(t, accounts[2], accounts[0].Children[1])
}

func TestBuildHierarchyDeepNesting(t *testing.T) {
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("410.1", "Residential Water", 350000),
		testAccount("410.1.2", "Meter Fees", 10000),
	}

	BuildHierarchy(accounts)

	require.NotNil(t, accounts[2].ParentCode)
	assert.Equal(t, "410.1", *accounts[2].ParentCode)
	require.Len(t, accounts[1].Children, 1)
	assert.Same(t, accounts[2], accounts[1].Children[0])
}

func TestBuildHierarchyDuplicateCodesBothAttach(t *testing.T) {
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("410.1", "Residential Water", 350000),
		testAccount("410.1", "Residential Water", 350000),
	}

	BuildHierarchy(accounts)

	require.Len(t, accounts[0].Children, 2)
	for _, child := range accounts[0].Children {
		require.NotNil(t, child.ParentCode)
		assert.Equal(t, "410", *child.ParentCode)
	}
}

func TestBuildHierarchyNonNumericCodeStaysRoot(t *testing.T) {
	accounts := []*models.BudgetAccount{testAccount("abc", "Oddball", 100)}

	BuildHierarchy(accounts)

	assert.Nil(t, accounts[0].ParentCode)
	assert.Empty(t, accounts[0].Children)
}

func TestBuildHierarchyOrphanStaysRoot(t *testing.T) {
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("410.1.2", "Meter Fees", 10000),
	}

	BuildHierarchy(accounts)

	// 410.1 is absent, and only the immediate parent is considered.
	assert.Nil(t, accounts[1].ParentCode)
	assert.Empty(t, accounts[0].Children)
}

func TestBuildHierarchyIdempotent(t *testing.T) {
	accounts := []*models.BudgetAccount{
		testAccount("410", "Water Revenue", 500000),
		testAccount("410.1", "Residential Water", 350000),
	}

	BuildHierarchy(accounts)
	BuildHierarchy(accounts)

	require.NotNil(t, accounts[1].ParentCode)
	assert.Equal(t, "410", *accounts[1].ParentCode)
	require.Len(t, accounts[0].Children, 1)
	assert.Same(t, accounts[1], accounts[0].Children[0])
}
