package service

import "budget-web/internal/models"

// BuildHierarchy links parsed accounts into a tree using their dotted
// codes: "410.1" becomes a child of "410" when "410" is present in the
// batch. Parent and child links are reset on every call, so running the
// builder twice yields the same assignment. Accounts whose parent code is
// absent stay root-level. The input slice is returned for chaining.
func BuildHierarchy(accounts []*models.BudgetAccount) []*models.BudgetAccount {
	byCode := make(map[string]*models.BudgetAccount, len(accounts))
	for _, account := range accounts {
		account.ParentCode = nil
		account.Children = nil
		byCode[account.Code] = account
	}

	for _, account := range accounts {
		parentCode := models.ParentCode(account.Code)
		if parentCode == "" {
			continue
		}
		parent, ok := byCode[parentCode]
		if !ok {
			continue
		}
		code := parentCode
		account.ParentCode = &code
		parent.Children = append(parent.Children, account)
	}

	return accounts
}
