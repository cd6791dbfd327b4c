package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TaskTypeImport identifies queued budget import jobs.
const TaskTypeImport = "budget:import"

// progressTTL keeps finished progress entries readable for a while after a
// run without letting them pile up in Redis.
const progressTTL = 30 * time.Minute

// ImportTaskPayload is the task body for one queued import run. Confirmed
// records the user's answer to the upload warnings; the pipeline's
// confirmation gates are bound to it.
type ImportTaskPayload struct {
	SessionID   int    `json:"session_id"`
	SessionCode string `json:"session_code"`
	Confirmed   bool   `json:"confirmed"`
}

func NewImportTask(sessionID int, sessionCode string, confirmed bool) (*asynq.Task, error) {
	payload, err := json.Marshal(ImportTaskPayload{
		SessionID:   sessionID,
		SessionCode: sessionCode,
		Confirmed:   confirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import payload: %w", err)
	}
	return asynq.NewTask(TaskTypeImport, payload), nil
}

// ProgressKey is where a session's live progress JSON is published.
func ProgressKey(sessionCode string) string {
	return "import:progress:" + sessionCode
}

// CancelKey is the flag the cancel endpoint sets and the worker polls.
func CancelKey(sessionCode string) string {
	return "import:cancel:" + sessionCode
}
