package handler

import (
	"budget-web/internal/config"
	"budget-web/internal/models"
	"budget-web/internal/repository"
	"budget-web/internal/service"
	"budget-web/internal/utils"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	accountRepo *repository.AccountRepository
	excel       *service.ExcelService
	cfg         *config.Config
}

func NewAccountHandler(accountRepo *repository.AccountRepository, cfg *config.Config) *AccountHandler {
	return &AccountHandler{
		accountRepo: accountRepo,
		excel:       service.NewExcelService(),
		cfg:         cfg,
	}
}

func (h *AccountHandler) GetAccounts(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)

	accounts, total, err := h.accountRepo.FindAll(params.Limit, offset, params.Search)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve accounts", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponse(c, "Accounts retrieved successfully", accounts, pagination)
}

// GetAccountTree returns all active accounts linked into their dotted-code
// hierarchy, roots first.
func (h *AccountHandler) GetAccountTree(c *fiber.Ctx) error {
	accounts, err := h.accountRepo.GetAllActive()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve accounts", err)
	}

	pointers := make([]*models.BudgetAccount, len(accounts))
	for i := range accounts {
		pointers[i] = &accounts[i]
	}
	service.BuildHierarchy(pointers)

	roots := make([]*models.BudgetAccount, 0, len(pointers))
	for _, account := range pointers {
		if account.ParentCode == nil {
			roots = append(roots, account)
		}
	}

	return utils.SuccessResponse(c, "Account tree retrieved successfully", roots)
}

func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid account ID", err)
	}

	account, err := h.accountRepo.FindByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Account not found", err)
	}

	return utils.SuccessResponse(c, "Account retrieved successfully", account)
}

func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var req models.AccountRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if req.Code == "" || req.Name == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Account code and name are required", nil)
	}
	if !models.IsValidCode(req.Code) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Account code must be a dotted numeric code (e.g. 410.1)", nil)
	}

	if existing, err := h.accountRepo.FindByCode(req.Code); err == nil && existing != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "An account with this code already exists", nil)
	} else if err != nil && err != sql.ErrNoRows {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check account code", err)
	}

	account := &models.BudgetAccount{
		Code:           req.Code,
		Name:           req.Name,
		AccountType:    models.ParseAccountType(req.AccountType),
		Fund:           models.ParseFund(req.Fund),
		FundClass:      models.ParseFundClass(req.FundClass),
		BudgetedAmount: req.BudgetedAmount,
		ActualAmount:   req.ActualAmount,
		IsActive:       true,
	}
	if parent := models.ParentCode(req.Code); parent != "" {
		account.ParentCode = &parent
	}

	if err := h.accountRepo.Create(account); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create account", err)
	}

	return utils.SuccessResponse(c, "Account created successfully", account)
}

func (h *AccountHandler) UpdateAccount(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid account ID", err)
	}

	var req models.AccountRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if req.Code == "" || req.Name == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Account code and name are required", nil)
	}
	if !models.IsValidCode(req.Code) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Account code must be a dotted numeric code (e.g. 410.1)", nil)
	}

	account, err := h.accountRepo.FindByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Account not found", err)
	}

	if req.Code != account.Code {
		if existing, lookupErr := h.accountRepo.FindByCode(req.Code); lookupErr == nil && existing != nil && existing.ID != account.ID {
			return utils.ErrorResponse(c, fiber.StatusConflict, "An account with this code already exists", nil)
		} else if lookupErr != nil && lookupErr != sql.ErrNoRows {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check account code", lookupErr)
		}
	}

	account.Code = req.Code
	account.Name = req.Name
	account.AccountType = models.ParseAccountType(req.AccountType)
	account.Fund = models.ParseFund(req.Fund)
	account.FundClass = models.ParseFundClass(req.FundClass)
	account.BudgetedAmount = req.BudgetedAmount
	account.ActualAmount = req.ActualAmount
	account.IsActive = req.IsActive
	account.ParentCode = nil
	if parent := models.ParentCode(req.Code); parent != "" {
		account.ParentCode = &parent
	}

	if err := h.accountRepo.Update(account); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update account", err)
	}

	return utils.SuccessResponse(c, "Account updated successfully", account)
}

func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid account ID", err)
	}

	if err := h.accountRepo.Delete(id); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete account", err)
	}

	return utils.SuccessResponse(c, "Account deleted successfully", nil)
}

// ExportAccounts writes the styled budget-versus-actual report and serves it.
// The fiscal year defaults to the current year.
func (h *AccountHandler) ExportAccounts(c *fiber.Ctx) error {
	fiscalYear := c.QueryInt("fiscal_year", time.Now().Year())

	accounts, err := h.accountRepo.GetAllActive()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve accounts", err)
	}

	exportName := fmt.Sprintf("budget_report_%d_%s.xlsx", fiscalYear, time.Now().Format("20060102_150405"))
	exportPath := filepath.Join(h.cfg.ReportPath, exportName)
	if err := h.excel.ExportBudgetReport(accounts, fiscalYear, exportPath); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export accounts", err)
	}

	return c.Download(exportPath, exportName)
}

// DownloadTemplate serves the import template with sample rows and the
// instructions sheet.
func (h *AccountHandler) DownloadTemplate(c *fiber.Ctx) error {
	templateName := "budget_import_template.xlsx"
	templatePath := filepath.Join(h.cfg.ReportPath, templateName)

	if err := h.excel.GenerateImportTemplate(templatePath); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate template", err)
	}

	return c.Download(templatePath, templateName)
}
