package handler

import (
	"budget-web/internal/repository"
	"budget-web/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	accountRepo *repository.AccountRepository
	importRepo  *repository.ImportRepository
}

func NewDashboardHandler(accountRepo *repository.AccountRepository, importRepo *repository.ImportRepository) *DashboardHandler {
	return &DashboardHandler{
		accountRepo: accountRepo,
		importRepo:  importRepo,
	}
}

// GetStats returns account totals plus a per-status breakdown of import
// sessions, with the overall budget variance precomputed for the dashboard.
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	totals, err := h.accountRepo.GetTotals()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve account totals", err)
	}

	statusCounts, err := h.importRepo.GetStatusCounts()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve import statistics", err)
	}

	return utils.SuccessResponse(c, "Dashboard statistics retrieved successfully", fiber.Map{
		"accounts":        totals,
		"total_variance":  totals.TotalBudget.Sub(totals.TotalActual),
		"import_sessions": statusCounts,
	})
}
