package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"budget-web/internal/models"

	"github.com/sirupsen/logrus"
)

// AccountStore is the persistence surface the reconciler works against.
// FindByCode must return sql.ErrNoRows when no account carries the code.
type AccountStore interface {
	FindByCode(code string) (*models.BudgetAccount, error)
	Create(account *models.BudgetAccount) error
	Update(account *models.BudgetAccount) error
}

// Reconciler applies a parsed account batch to the store, inserting new
// codes and merging into existing ones.
type Reconciler struct {
	store  AccountStore
	logger *logrus.Logger
}

func NewReconciler(store AccountStore, logger *logrus.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Reconcile upserts each account by its code. A single record's failure is
// logged and itemized in the summary without aborting the batch. The
// context is checked between records, so cancellation never interrupts an
// individual write but stops the loop. Writes are not transactional:
// records persisted before a cancellation stay committed.
func (r *Reconciler) Reconcile(ctx context.Context, accounts []*models.BudgetAccount, progress ProgressFunc) (*models.ImportSummary, error) {
	summary := &models.ImportSummary{}
	total := len(accounts)

	for i, account := range accounts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		inserted, err := r.upsert(account)
		summary.Processed++
		switch {
		case err != nil:
			r.logger.WithError(err).WithField("code", account.Code).Warn("failed to persist account")
			summary.Failed++
			summary.Failures = append(summary.Failures, models.RecordFailure{
				Code:   account.Code,
				Reason: err.Error(),
			})
		case inserted:
			summary.Inserted++
		default:
			summary.Updated++
		}

		if progress != nil && (i+1)%100 == 0 {
			progress((i+1)*100/total, fmt.Sprintf("Saved %d of %d accounts", i+1, total))
		}
	}

	if progress != nil {
		progress(100, fmt.Sprintf("Saved %d accounts", summary.Processed))
	}

	return summary, nil
}

// upsert inserts the account when its code is unknown, otherwise merges the
// imported fields into the stored entity. Actual amounts come from the
// accounting-system sync and are never overwritten here.
func (r *Reconciler) upsert(account *models.BudgetAccount) (bool, error) {
	existing, err := r.store.FindByCode(account.Code)
	if errors.Is(err, sql.ErrNoRows) {
		if err := r.store.Create(account); err != nil {
			return false, fmt.Errorf("failed to create account: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up account: %w", err)
	}

	existing.Name = account.Name
	existing.AccountType = account.AccountType
	existing.Fund = account.Fund
	existing.FundClass = account.FundClass
	existing.BudgetedAmount = account.BudgetedAmount
	existing.ParentCode = account.ParentCode
	existing.IsActive = true

	if err := r.store.Update(existing); err != nil {
		return false, fmt.Errorf("failed to update account: %w", err)
	}
	return false, nil
}
