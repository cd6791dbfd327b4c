package service

import (
	"context"
	"errors"
	"fmt"

	"budget-web/internal/config"
	"budget-web/internal/models"

	"github.com/sirupsen/logrus"
)

// ErrImportDeclined means a confirmation gate (record count or validation
// warnings) was answered no. Nothing has been written when it is returned.
var ErrImportDeclined = errors.New("import declined")

// ConfirmFunc answers a yes/no gate question. The worker binds it to the
// task payload's confirmed flag; tests bind it to canned answers.
type ConfirmFunc func(message string) bool

// ImportOptions carries the external hooks for one pipeline run. A nil
// Confirm declines every gate; a nil Progress reports nothing.
type ImportOptions struct {
	Progress ProgressFunc
	Confirm  ConfirmFunc
}

// previewLimit is how many parsed rows an inspection echoes back.
const previewLimit = 5

// ImportService runs the import pipeline: parse, build hierarchy, validate,
// gate, reconcile.
type ImportService struct {
	excel      *ExcelService
	reconciler *Reconciler
	cfg        *config.Config
	logger     *logrus.Logger
}

func NewImportService(excel *ExcelService, reconciler *Reconciler, cfg *config.Config, logger *logrus.Logger) *ImportService {
	return &ImportService{
		excel:      excel,
		reconciler: reconciler,
		cfg:        cfg,
		logger:     logger,
	}
}

// Inspect parses and validates the workbook without writing anything. It is
// what the upload endpoint calls synchronously to decide whether the import
// can be queued right away or needs the user to confirm first.
func (s *ImportService) Inspect(ctx context.Context, filePath string) (*models.ImportPreview, error) {
	accounts, err := s.excel.ParseBudgetFile(ctx, filePath, nil)
	if err != nil {
		return nil, err
	}

	BuildHierarchy(accounts)
	validation := ValidateAccounts(accounts)

	preview := &models.ImportPreview{
		TotalRecords: len(accounts),
		Validation:   validation,
	}
	if len(accounts) > previewLimit {
		preview.PreviewRows = accounts[:previewLimit]
	} else {
		preview.PreviewRows = accounts
	}

	if len(accounts) > s.cfg.ImportWarnRecords {
		preview.RequiresConfirmation = true
		preview.Warnings = append(preview.Warnings,
			fmt.Sprintf("File contains %d records, more than the %d-record threshold", len(accounts), s.cfg.ImportWarnRecords))
	}
	if !validation.IsValid {
		preview.RequiresConfirmation = true
		preview.Warnings = append(preview.Warnings,
			fmt.Sprintf("Validation found %d issue(s)", len(validation.Errors)))
	}

	return preview, nil
}

// Run executes the full pipeline against the workbook at filePath. The
// record-count and validation gates consult opts.Confirm before anything is
// persisted; declining aborts with ErrImportDeclined. Progress is scaled so
// parsing covers 0-50 and reconciliation 50-100.
func (s *ImportService) Run(ctx context.Context, filePath string, opts ImportOptions) (*models.ImportSummary, models.ValidationResult, error) {
	confirm := opts.Confirm
	if confirm == nil {
		confirm = func(string) bool { return false }
	}

	accounts, err := s.excel.ParseBudgetFile(ctx, filePath, stageProgress(opts.Progress, 0))
	if err != nil {
		return nil, models.ValidationResult{}, err
	}

	BuildHierarchy(accounts)
	validation := ValidateAccounts(accounts)

	if len(accounts) > s.cfg.ImportWarnRecords {
		message := fmt.Sprintf("The file contains %d records, more than the %d-record threshold. Continue?",
			len(accounts), s.cfg.ImportWarnRecords)
		if !confirm(message) {
			s.logger.WithField("records", len(accounts)).Info("import declined at record count gate")
			return nil, validation, ErrImportDeclined
		}
	}

	if !validation.IsValid {
		message := fmt.Sprintf("Validation found %d issue(s). Import anyway?", len(validation.Errors))
		if !confirm(message) {
			s.logger.WithField("issues", len(validation.Errors)).Info("import declined at validation gate")
			return nil, validation, ErrImportDeclined
		}
	}

	summary, err := s.reconciler.Reconcile(ctx, accounts, stageProgress(opts.Progress, 50))
	if err != nil {
		return summary, validation, err
	}

	s.logger.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"inserted":  summary.Inserted,
		"updated":   summary.Updated,
		"failed":    summary.Failed,
	}).Info("import completed")

	return summary, validation, nil
}

// stageProgress maps a stage-local 0-100 progress onto one half of the
// overall range, offset by the stage's starting percentage.
func stageProgress(progress ProgressFunc, offset int) ProgressFunc {
	if progress == nil {
		return nil
	}
	return func(percent int, message string) {
		progress(offset+percent/2, message)
	}
}
