package repository

import (
	"fmt"

	"budget-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// accountColumns guards non-pointer fields against NULLs from legacy rows.
const accountColumns = `id,
	       code,
	       COALESCE(name, '') AS name,
	       COALESCE(account_type, 'asset') AS account_type,
	       fund,
	       fund_class,
	       COALESCE(budgeted_amount, 0) AS budgeted_amount,
	       COALESCE(actual_amount, 0) AS actual_amount,
	       is_active,
	       parent_code,
	       created_at,
	       updated_at`

func (r *AccountRepository) FindAll(limit, offset int, search string) ([]models.BudgetAccount, int, error) {
	var accounts []models.BudgetAccount
	var total int

	whereClause := ""
	args := []interface{}{}

	if search != "" {
		whereClause = "WHERE code LIKE ? OR name LIKE ?"
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM budget_accounts %s", whereClause)
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM budget_accounts %s
		ORDER BY code
		LIMIT ? OFFSET ?`, accountColumns, whereClause)
	args = append(args, limit, offset)
	if err := r.db.Select(&accounts, query, args...); err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

func (r *AccountRepository) FindByID(id int) (*models.BudgetAccount, error) {
	var account models.BudgetAccount
	query := fmt.Sprintf(`
		SELECT %s
		FROM budget_accounts
		WHERE id = ?
		LIMIT 1`, accountColumns)
	if err := r.db.Get(&account, query, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByCode looks up an account by its natural key. Returns sql.ErrNoRows
// when the code is not persisted yet.
func (r *AccountRepository) FindByCode(code string) (*models.BudgetAccount, error) {
	var account models.BudgetAccount
	query := fmt.Sprintf(`
		SELECT %s
		FROM budget_accounts
		WHERE code = ?
		LIMIT 1`, accountColumns)
	if err := r.db.Get(&account, query, code); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) Create(account *models.BudgetAccount) error {
	query := `INSERT INTO budget_accounts (code, name, account_type, fund, fund_class, budgeted_amount, actual_amount, is_active, parent_code)
	          VALUES (:code, :name, :account_type, :fund, :fund_class, :budgeted_amount, :actual_amount, :is_active, :parent_code)`
	result, err := r.db.NamedExec(query, account)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	account.ID = int(id)
	return nil
}

func (r *AccountRepository) Update(account *models.BudgetAccount) error {
	query := `UPDATE budget_accounts SET name = :name, account_type = :account_type,
	          fund = :fund, fund_class = :fund_class, budgeted_amount = :budgeted_amount,
	          actual_amount = :actual_amount, is_active = :is_active, parent_code = :parent_code
	          WHERE id = :id`
	_, err := r.db.NamedExec(query, account)
	return err
}

func (r *AccountRepository) Delete(id int) error {
	query := "DELETE FROM budget_accounts WHERE id = ?"
	_, err := r.db.Exec(query, id)
	return err
}

func (r *AccountRepository) GetAllActive() ([]models.BudgetAccount, error) {
	var accounts []models.BudgetAccount
	query := fmt.Sprintf(`
		SELECT %s
		FROM budget_accounts
		WHERE is_active = TRUE
		ORDER BY code`, accountColumns)
	err := r.db.Select(&accounts, query)
	return accounts, err
}

func (r *AccountRepository) GetTotals() (*models.AccountTotals, error) {
	var totals models.AccountTotals
	query := `
		SELECT COUNT(*) AS total_accounts,
		       COALESCE(SUM(is_active), 0) AS active_accounts,
		       COALESCE(SUM(budgeted_amount), 0) AS total_budget,
		       COALESCE(SUM(actual_amount), 0) AS total_actual
		FROM budget_accounts`
	if err := r.db.Get(&totals, query); err != nil {
		return nil, err
	}
	return &totals, nil
}
