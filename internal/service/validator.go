package service

import (
	"fmt"
	"strings"

	"budget-web/internal/models"
)

// maxDuplicateExamples caps how many duplicate codes are named in the
// duplicate-code error message.
const maxDuplicateExamples = 5

// ValidateAccounts runs the batch integrity checks over a parsed account
// list: duplicate codes, malformed codes, negative budget amounts, and
// missing descriptions. Every check runs regardless of earlier failures and
// contributes at most one message, in check order. The input is not
// mutated, and a failing result never blocks persistence by itself.
func ValidateAccounts(accounts []*models.BudgetAccount) models.ValidationResult {
	var errs []string

	seen := make(map[string]int, len(accounts))
	var duplicates []string
	for _, account := range accounts {
		seen[account.Code]++
		if seen[account.Code] == 2 {
			duplicates = append(duplicates, account.Code)
		}
	}
	if len(duplicates) > 0 {
		examples := duplicates
		suffix := ""
		if len(duplicates) > maxDuplicateExamples {
			examples = duplicates[:maxDuplicateExamples]
			suffix = fmt.Sprintf(" and %d more", len(duplicates)-maxDuplicateExamples)
		}
		errs = append(errs, fmt.Sprintf("Duplicate account numbers found: %s%s", strings.Join(examples, ", "), suffix))
	}

	malformed := 0
	for _, account := range accounts {
		if !models.IsValidCode(account.Code) {
			malformed++
		}
	}
	if malformed > 0 {
		errs = append(errs, fmt.Sprintf("%d account number(s) are not valid dotted codes (e.g. 410 or 410.1)", malformed))
	}

	negative := 0
	for _, account := range accounts {
		if account.BudgetedAmount.IsNegative() {
			negative++
		}
	}
	if negative > 0 {
		errs = append(errs, fmt.Sprintf("%d account(s) have a negative budget amount", negative))
	}

	missing := 0
	for _, account := range accounts {
		if strings.TrimSpace(account.Name) == "" {
			missing++
		}
	}
	if missing > 0 {
		errs = append(errs, fmt.Sprintf("%d account(s) are missing a description", missing))
	}

	return models.ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}
