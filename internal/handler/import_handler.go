package handler

import (
	"budget-web/internal/config"
	"budget-web/internal/models"
	"budget-web/internal/repository"
	"budget-web/internal/service"
	"budget-web/internal/utils"
	"budget-web/internal/worker"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	cancelTTL          = 30 * time.Minute
	sessionExportLimit = 500
)

type ImportHandler struct {
	importRepo  *repository.ImportRepository
	importSvc   *service.ImportService
	excel       *service.ExcelService
	redis       *redis.Client
	asynqClient *asynq.Client
	cfg         *config.Config
}

func NewImportHandler(importRepo *repository.ImportRepository, accountRepo *repository.AccountRepository, redisClient *redis.Client, asynqClient *asynq.Client, cfg *config.Config) *ImportHandler {
	excel := service.NewExcelService()
	reconciler := service.NewReconciler(accountRepo, utils.GetLogger())
	return &ImportHandler{
		importRepo:  importRepo,
		importSvc:   service.NewImportService(excel, reconciler, cfg, utils.GetLogger()),
		excel:       excel,
		redis:       redisClient,
		asynqClient: asynqClient,
		cfg:         cfg,
	}
}

// UploadFile receives a budget workbook, inspects it and either queues the
// import right away or parks the session until the user confirms.
func (h *ImportHandler) UploadFile(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(int)

	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File is required", err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".xlsx" && ext != ".xls" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Only Excel files (.xlsx, .xls) are allowed", nil)
	}

	if file.Size > h.cfg.UploadMaxSize {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			fmt.Sprintf("File exceeds the maximum upload size of %d MB", h.cfg.UploadMaxSize/(1<<20)), nil)
	}

	sessionCode := fmt.Sprintf("IMPORT-%s", uuid.New().String()[:8])
	savePath := filepath.Join(h.cfg.UploadPath, sessionCode+ext)
	if err := c.SaveFile(file, savePath); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save file", err)
	}

	preview, err := h.importSvc.Inspect(c.Context(), savePath)
	if err != nil {
		os.Remove(savePath)
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read Excel file: "+err.Error(), err)
	}

	// The record-count and validation gates are part of the preview; the
	// file-size gate lives here because only the handler sees the upload
	// size. force=true skips the size warning, nothing else.
	force := c.FormValue("force") == "true"
	if file.Size > h.cfg.ImportWarnFileSize && !force {
		preview.RequiresConfirmation = true
		preview.Warnings = append(preview.Warnings,
			fmt.Sprintf("File is %.1f MB, larger than the %d MB threshold",
				float64(file.Size)/(1<<20), h.cfg.ImportWarnFileSize/(1<<20)))
	}

	session := &models.ImportSession{
		SessionCode: sessionCode,
		UserID:      userID,
		Filename:    file.Filename,
		FilePath:    savePath,
		FileSize:    file.Size,
		TotalRows:   preview.TotalRecords,
		Status:      models.ImportStatusQueued,
	}
	if preview.RequiresConfirmation {
		session.Status = models.ImportStatusAwaitingConfirmation
	}

	if len(preview.Validation.Errors) > 0 {
		if raw, jsonErr := json.Marshal(preview.Validation.Errors); jsonErr == nil {
			session.ValidationErrors = string(raw)
		}
		reportName := fmt.Sprintf("import_errors_%s.xlsx", sessionCode)
		if reportErr := h.excel.GenerateValidationReport(preview.Validation, preview.TotalRecords, filepath.Join(h.cfg.ReportPath, reportName)); reportErr == nil {
			session.ReportPath = reportName
		}
	}

	if err := h.importRepo.CreateSession(session); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create import session", err)
	}

	if !preview.RequiresConfirmation {
		if err := h.enqueueImport(session, false); err != nil {
			_ = h.importRepo.UpdateSessionStatus(session.ID, models.ImportStatusFailed)
			return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Failed to queue import job", err)
		}
	}

	return utils.SuccessResponse(c, "File uploaded successfully", fiber.Map{
		"session": session,
		"preview": preview,
	})
}

func (h *ImportHandler) GetSessions(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)
	status := c.Query("status")

	sessions, total, err := h.importRepo.GetSessions(params.Limit, offset, status)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve import sessions", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponse(c, "Import sessions retrieved successfully", sessions, pagination)
}

func (h *ImportHandler) GetSessionDetail(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid session ID", err)
	}

	session, err := h.importRepo.GetSessionByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", err)
	}

	var validationErrors []string
	if session.ValidationErrors != "" {
		_ = json.Unmarshal([]byte(session.ValidationErrors), &validationErrors)
	}

	return utils.SuccessResponse(c, "Import session retrieved successfully", fiber.Map{
		"session":           session,
		"validation_errors": validationErrors,
	})
}

// ConfirmSession relaunches a parked import with the confirmation gates
// already answered.
func (h *ImportHandler) ConfirmSession(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid session ID", err)
	}

	session, err := h.importRepo.GetSessionByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", err)
	}

	if session.Status != models.ImportStatusAwaitingConfirmation && session.Status != models.ImportStatusUploaded {
		return utils.ErrorResponse(c, fiber.StatusConflict,
			fmt.Sprintf("Session is %s and cannot be confirmed", session.Status), nil)
	}

	if err := h.importRepo.UpdateSessionStatus(session.ID, models.ImportStatusQueued); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update session", err)
	}

	if err := h.enqueueImport(session, true); err != nil {
		_ = h.importRepo.UpdateSessionStatus(session.ID, models.ImportStatusFailed)
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Failed to queue import job", err)
	}

	return utils.SuccessResponse(c, "Import confirmed and queued", fiber.Map{
		"session_code": session.SessionCode,
		"status":       models.ImportStatusQueued,
	})
}

// CancelSession flags the session for cancellation. A running worker picks
// the flag up from Redis and stops between records.
func (h *ImportHandler) CancelSession(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid session ID", err)
	}

	session, err := h.importRepo.GetSessionByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", err)
	}

	switch session.Status {
	case models.ImportStatusCompleted, models.ImportStatusFailed, models.ImportStatusCanceled:
		return utils.ErrorResponse(c, fiber.StatusConflict,
			fmt.Sprintf("Session is already %s", session.Status), nil)
	}

	// Without Redis nothing can be running, so the status update alone is
	// enough to park the session.
	if h.redis != nil {
		if err := h.redis.Set(c.Context(), worker.CancelKey(session.SessionCode), "1", cancelTTL).Err(); err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to signal cancellation", err)
		}
	}

	if err := h.importRepo.UpdateSessionStatus(session.ID, models.ImportStatusCanceled); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update session", err)
	}

	return utils.SuccessResponse(c, "Import canceled", fiber.Map{
		"session_code": session.SessionCode,
		"status":       models.ImportStatusCanceled,
	})
}

// GetSessionProgress serves live progress from Redis, falling back to the
// stored session when the worker has not published yet or the key expired.
func (h *ImportHandler) GetSessionProgress(c *fiber.Ctx) error {
	sessionCode := c.Params("session_code")
	if sessionCode == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Session code is required", nil)
	}

	session, err := h.importRepo.GetSessionByCode(sessionCode)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", err)
	}

	if h.redis != nil {
		raw, err := h.redis.Get(c.Context(), worker.ProgressKey(session.SessionCode)).Result()
		if err != nil && err != redis.Nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read import progress", err)
		}
		if err == nil {
			var progress models.ImportProgress
			if unmarshalErr := json.Unmarshal([]byte(raw), &progress); unmarshalErr == nil {
				return utils.SuccessResponse(c, "Import progress retrieved", progress)
			}
		}
	}

	progress := models.ImportProgress{Status: session.Status}
	switch session.Status {
	case models.ImportStatusCompleted:
		progress.Percent = 100
		progress.Message = "Import completed"
	case models.ImportStatusFailed:
		progress.Message = session.ErrorMessage
	case models.ImportStatusCanceled:
		progress.Message = "Import canceled"
	case models.ImportStatusAwaitingConfirmation:
		progress.Message = "Waiting for confirmation"
	default:
		if session.TotalRows > 0 {
			progress.Percent = session.ProcessedRows * 100 / session.TotalRows
		}
		progress.Message = "Import pending"
	}

	return utils.SuccessResponse(c, "Import progress retrieved", progress)
}

// DownloadErrorReport serves a generated validation report by filename.
func (h *ImportHandler) DownloadErrorReport(c *fiber.Ctx) error {
	filename := c.Params("filename")
	if filename == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Filename is required", nil)
	}

	if !isValidFilename(filename) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid filename", nil)
	}

	filePath := filepath.Join(h.cfg.ReportPath, filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Error report file not found", err)
	}

	return c.Download(filePath, filename)
}

// ExportSessions writes the most recent import sessions to a workbook and
// serves it.
func (h *ImportHandler) ExportSessions(c *fiber.Ctx) error {
	status := c.Query("status")
	sessions, _, err := h.importRepo.GetSessions(sessionExportLimit, 0, status)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve import sessions", err)
	}

	exportName := fmt.Sprintf("import_sessions_%s.xlsx", time.Now().Format("20060102_150405"))
	exportPath := filepath.Join(h.cfg.ReportPath, exportName)
	if err := h.excel.ExportSessionList(sessions, exportPath); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export import sessions", err)
	}

	return c.Download(exportPath, exportName)
}

// DeleteSession removes a finished session along with its uploaded workbook
// and error report.
func (h *ImportHandler) DeleteSession(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid session ID", err)
	}

	session, err := h.importRepo.GetSessionByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", err)
	}

	switch session.Status {
	case models.ImportStatusQueued, models.ImportStatusProcessing:
		return utils.ErrorResponse(c, fiber.StatusConflict, "Cannot delete a session that is still running", nil)
	}

	if err := h.importRepo.DeleteSession(id); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete import session", err)
	}

	if session.FilePath != "" {
		os.Remove(session.FilePath)
	}
	if session.ReportPath != "" {
		os.Remove(filepath.Join(h.cfg.ReportPath, session.ReportPath))
	}

	return utils.SuccessResponse(c, "Import session deleted", nil)
}

func (h *ImportHandler) enqueueImport(session *models.ImportSession, confirmed bool) error {
	if h.asynqClient == nil {
		return fmt.Errorf("background processing is not available")
	}
	task, err := worker.NewImportTask(session.ID, session.SessionCode, confirmed)
	if err != nil {
		return fmt.Errorf("failed to create import task: %w", err)
	}
	if _, err := h.asynqClient.Enqueue(task); err != nil {
		return fmt.Errorf("failed to enqueue import task: %w", err)
	}
	return nil
}

// isValidFilename rejects anything that could escape the report directory.
func isValidFilename(filename string) bool {
	if len(filename) == 0 || len(filename) > 255 {
		return false
	}

	dangerousChars := []string{"..", "/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, char := range dangerousChars {
		if strings.Contains(filename, char) {
			return false
		}
	}

	return strings.HasPrefix(filename, "import_errors_") && strings.HasSuffix(filename, ".xlsx")
}
