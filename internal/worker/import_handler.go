package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"budget-web/internal/config"
	"budget-web/internal/models"
	"budget-web/internal/repository"
	"budget-web/internal/service"
	"budget-web/internal/utils"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// cancelPollInterval is how often the watcher checks for a cancel flag.
const cancelPollInterval = 500 * time.Millisecond

type ImportTaskHandler struct {
	cfg        *config.Config
	redis      *redis.Client
	importRepo *repository.ImportRepository
	importSvc  *service.ImportService
	logger     *logrus.Logger
}

func NewImportTaskHandler(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) *ImportTaskHandler {
	logger := utils.GetLogger()
	accountRepo := repository.NewAccountRepository(db)
	reconciler := service.NewReconciler(accountRepo, logger)

	return &ImportTaskHandler{
		cfg:        cfg,
		redis:      redisClient,
		importRepo: repository.NewImportRepository(db),
		importSvc:  service.NewImportService(service.NewExcelService(), reconciler, cfg, logger),
		logger:     logger,
	}
}

// Handle runs one queued import. Terminal outcomes (completed, declined,
// canceled, unparseable file) return nil so asynq does not retry work that
// cannot succeed differently; only infrastructure errors are retried.
func (h *ImportTaskHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload ImportTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		h.logger.WithError(err).Error("failed to unmarshal import payload")
		return nil
	}

	log := h.logger.WithFields(logrus.Fields{
		"session_id":   payload.SessionID,
		"session_code": payload.SessionCode,
	})

	session, err := h.importRepo.GetSessionByID(payload.SessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	switch session.Status {
	case models.ImportStatusCanceled:
		log.Info("session already canceled, skipping")
		return nil
	case models.ImportStatusCompleted, models.ImportStatusFailed:
		log.WithField("status", session.Status).Info("session already finished, skipping")
		return nil
	}

	if err := h.importRepo.UpdateSessionStatus(session.ID, models.ImportStatusProcessing); err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	h.publishProgress(ctx, payload.SessionCode, 0, "Import started", models.ImportStatusProcessing)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go h.watchCancellation(runCtx, cancelRun, payload.SessionCode)

	progress := func(percent int, message string) {
		h.publishProgress(ctx, payload.SessionCode, percent, message, models.ImportStatusProcessing)
		if session.TotalRows > 0 {
			h.importRepo.UpdateSessionProgress(session.ID, session.TotalRows*percent/100)
		}
	}
	confirm := func(string) bool { return payload.Confirmed }

	summary, validation, err := h.importSvc.Run(runCtx, session.FilePath, service.ImportOptions{
		Progress: progress,
		Confirm:  confirm,
	})

	if len(validation.Errors) > 0 {
		if encoded, marshalErr := json.Marshal(validation.Errors); marshalErr == nil {
			session.ValidationErrors = string(encoded)
		}
	}

	switch {
	case err == nil:
		session.Status = models.ImportStatusCompleted
		session.ProcessedRows = summary.Processed
		session.InsertedRows = summary.Inserted
		session.UpdatedRows = summary.Updated
		session.FailedRows = summary.Failed
		if summary.Failed > 0 {
			session.ErrorMessage = fmt.Sprintf("%d record(s) failed to persist", summary.Failed)
		}
		if updateErr := h.importRepo.UpdateSession(session); updateErr != nil {
			return fmt.Errorf("failed to finalize session: %w", updateErr)
		}
		h.publishProgress(ctx, payload.SessionCode, 100, "Import completed", models.ImportStatusCompleted)
		log.WithFields(logrus.Fields{
			"inserted": summary.Inserted,
			"updated":  summary.Updated,
			"failed":   summary.Failed,
		}).Info("import session completed")
		return nil

	case errors.Is(err, service.ErrImportDeclined):
		// Enqueued without confirmation but a gate tripped. Park the
		// session so the confirm endpoint can relaunch it.
		session.Status = models.ImportStatusAwaitingConfirmation
		if updateErr := h.importRepo.UpdateSession(session); updateErr != nil {
			return fmt.Errorf("failed to park session: %w", updateErr)
		}
		h.publishProgress(ctx, payload.SessionCode, 0, "Import requires confirmation", models.ImportStatusAwaitingConfirmation)
		log.Info("import parked awaiting confirmation")
		return nil

	case errors.Is(err, context.Canceled):
		session.Status = models.ImportStatusCanceled
		session.ErrorMessage = "canceled by user"
		if updateErr := h.importRepo.UpdateSession(session); updateErr != nil {
			log.WithError(updateErr).Error("failed to mark session canceled")
		}
		h.publishProgress(ctx, payload.SessionCode, 0, "Import canceled", models.ImportStatusCanceled)
		log.Info("import session canceled")
		return nil

	default:
		session.Status = models.ImportStatusFailed
		session.ErrorMessage = err.Error()
		if updateErr := h.importRepo.UpdateSession(session); updateErr != nil {
			log.WithError(updateErr).Error("failed to mark session failed")
		}
		h.publishProgress(ctx, payload.SessionCode, 0, err.Error(), models.ImportStatusFailed)
		log.WithError(err).Error("import session failed")
		return nil
	}
}

// watchCancellation polls Redis for the session's cancel flag and cancels
// the pipeline context when it appears. It exits when the run finishes.
func (h *ImportTaskHandler) watchCancellation(ctx context.Context, cancel context.CancelFunc, sessionCode string) {
	ticker := time.NewTicker(cancelPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			exists, err := h.redis.Exists(ctx, CancelKey(sessionCode)).Result()
			if err != nil {
				continue
			}
			if exists > 0 {
				cancel()
				return
			}
		}
	}
}

func (h *ImportTaskHandler) publishProgress(ctx context.Context, sessionCode string, percent int, message, status string) {
	payload, err := json.Marshal(models.ImportProgress{
		Percent: percent,
		Message: message,
		Status:  status,
	})
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, ProgressKey(sessionCode), payload, progressTTL).Err(); err != nil {
		h.logger.WithError(err).Warn("failed to publish import progress")
	}
}
