package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a budget account. The values follow the municipal
// chart-of-accounts convention where liabilities are tracked as payables and
// equity as retained earnings.
type AccountType string

const (
	AccountTypeAsset            AccountType = "asset"
	AccountTypePayables         AccountType = "payables"
	AccountTypeRetainedEarnings AccountType = "retained_earnings"
	AccountTypeRevenue          AccountType = "revenue"
	AccountTypeExpense          AccountType = "expense"
)

// Fund identifies which municipal fund an account belongs to.
type Fund string

const (
	FundGeneral    Fund = "General"
	FundWater      Fund = "Water"
	FundSewer      Fund = "Sewer"
	FundTrash      Fund = "Trash"
	FundElectric   Fund = "Electric"
	FundStormwater Fund = "Stormwater"
	FundEnterprise Fund = "Enterprise"
)

// Funds lists every known fund in declaration order.
var Funds = []Fund{
	FundGeneral,
	FundWater,
	FundSewer,
	FundTrash,
	FundElectric,
	FundStormwater,
	FundEnterprise,
}

// FundClass is the reporting classification dimension orthogonal to fund.
type FundClass string

const (
	FundClassGovernmental FundClass = "Governmental"
	FundClassProprietary  FundClass = "Proprietary"
	FundClassFiduciary    FundClass = "Fiduciary"
	FundClassMemo         FundClass = "Memo"
)

// BudgetAccount is one row of the chart of accounts. The same struct backs
// freshly parsed import records and persisted entities; tree links are
// in-memory only and excluded from persistence.
type BudgetAccount struct {
	ID             int              `db:"id" json:"id"`
	Code           string           `db:"code" json:"code"`
	Name           string           `db:"name" json:"name"`
	AccountType    AccountType      `db:"account_type" json:"account_type"`
	Fund           *Fund            `db:"fund" json:"fund"`
	FundClass      *FundClass       `db:"fund_class" json:"fund_class"`
	BudgetedAmount decimal.Decimal  `db:"budgeted_amount" json:"budgeted_amount"`
	ActualAmount   decimal.Decimal  `db:"actual_amount" json:"actual_amount"`
	IsActive       bool             `db:"is_active" json:"is_active"`
	ParentCode     *string          `db:"parent_code" json:"parent_code"`
	Children       []*BudgetAccount `db:"-" json:"children,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// Variance reports budgeted minus actual.
func (a *BudgetAccount) Variance() decimal.Decimal {
	return a.BudgetedAmount.Sub(a.ActualAmount)
}

// VariancePercent reports the variance as a percentage of budget. The bool
// is false for zero-budget accounts, where the percentage is undefined.
func (a *BudgetAccount) VariancePercent() (decimal.Decimal, bool) {
	if a.BudgetedAmount.IsZero() {
		return decimal.Zero, false
	}
	return a.Variance().Div(a.BudgetedAmount).Mul(decimal.NewFromInt(100)), true
}

// AccountTotals aggregates the chart of accounts for the dashboard.
type AccountTotals struct {
	TotalAccounts  int             `db:"total_accounts" json:"total_accounts"`
	ActiveAccounts int             `db:"active_accounts" json:"active_accounts"`
	TotalBudget    decimal.Decimal `db:"total_budget" json:"total_budget"`
	TotalActual    decimal.Decimal `db:"total_actual" json:"total_actual"`
}

type AccountRequest struct {
	Code           string          `json:"code" validate:"required"`
	Name           string          `json:"name" validate:"required"`
	AccountType    string          `json:"account_type"`
	Fund           string          `json:"fund"`
	FundClass      string          `json:"fund_class"`
	BudgetedAmount decimal.Decimal `json:"budgeted_amount"`
	ActualAmount   decimal.Decimal `json:"actual_amount"`
	IsActive       bool            `json:"is_active"`
}

// accountTypeKeywords is evaluated in order against lowercased text; the
// first keyword contained in the text decides the type. Group order is
// asset, payables, retained earnings, revenue, expense.
var accountTypeKeywords = []struct {
	keyword string
	value   AccountType
}{
	{"asset", AccountTypeAsset},
	{"cash", AccountTypeAsset},
	{"receivable", AccountTypeAsset},
	{"inventory", AccountTypeAsset},
	{"prepaid", AccountTypeAsset},
	{"investment", AccountTypeAsset},
	{"liabilit", AccountTypePayables},
	{"payable", AccountTypePayables},
	{"debt", AccountTypePayables},
	{"accrued", AccountTypePayables},
	{"deferred", AccountTypePayables},
	{"equity", AccountTypeRetainedEarnings},
	{"retained", AccountTypeRetainedEarnings},
	{"fund balance", AccountTypeRetainedEarnings},
	{"net position", AccountTypeRetainedEarnings},
	{"revenue", AccountTypeRevenue},
	{"income", AccountTypeRevenue},
	{"sales", AccountTypeRevenue},
	{"charge", AccountTypeRevenue},
	{"fee", AccountTypeRevenue},
	{"grant", AccountTypeRevenue},
	{"expense", AccountTypeExpense},
	{"expenditure", AccountTypeExpense},
	{"cost", AccountTypeExpense},
	{"salar", AccountTypeExpense},
	{"supplies", AccountTypeExpense},
	{"maintenance", AccountTypeExpense},
}

// ParseAccountType infers an account type from free text. Unrecognized or
// blank text falls back to AccountTypeAsset.
func ParseAccountType(text string) AccountType {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, kw := range accountTypeKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.value
		}
	}
	return AccountTypeAsset
}

// ParseFund matches fund names exactly, case-insensitively. Anything else,
// including blank text, reports no fund.
func ParseFund(text string) *Fund {
	trimmed := strings.TrimSpace(text)
	for _, f := range Funds {
		if strings.EqualFold(trimmed, string(f)) {
			fund := f
			return &fund
		}
	}
	return nil
}

// fundClassKeywords is evaluated in order; first match wins.
var fundClassKeywords = []struct {
	keyword string
	value   FundClass
}{
	{"govern", FundClassGovernmental},
	{"propriet", FundClassProprietary},
	{"enterprise", FundClassProprietary},
	{"utility", FundClassProprietary},
	{"internal service", FundClassProprietary},
	{"fiduciar", FundClassFiduciary},
	{"trust", FundClassFiduciary},
	{"agency", FundClassFiduciary},
	{"custodial", FundClassFiduciary},
	{"memo", FundClassMemo},
	{"statistical", FundClassMemo},
}

// ParseFundClass infers a fund class from free text. Fund class is
// optional, so unmatched text reports nil rather than a default.
func ParseFundClass(text string) *FundClass {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil
	}
	for _, kw := range fundClassKeywords {
		if strings.Contains(lower, kw.keyword) {
			class := kw.value
			return &class
		}
	}
	return nil
}
