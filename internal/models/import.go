package models

import "time"

// Import session statuses.
const (
	ImportStatusUploaded             = "uploaded"
	ImportStatusAwaitingConfirmation = "awaiting_confirmation"
	ImportStatusQueued               = "queued"
	ImportStatusProcessing           = "processing"
	ImportStatusCompleted            = "completed"
	ImportStatusFailed               = "failed"
	ImportStatusCanceled             = "canceled"
)

// ImportSession tracks one uploaded workbook through inspection,
// confirmation, and reconciliation.
type ImportSession struct {
	ID               int       `db:"id" json:"id"`
	SessionCode      string    `db:"session_code" json:"session_code"`
	UserID           int       `db:"user_id" json:"user_id"`
	Filename         string    `db:"filename" json:"filename"`
	FilePath         string    `db:"file_path" json:"file_path"`
	FileSize         int64     `db:"file_size" json:"file_size"`
	TotalRows        int       `db:"total_rows" json:"total_rows"`
	ProcessedRows    int       `db:"processed_rows" json:"processed_rows"`
	InsertedRows     int       `db:"inserted_rows" json:"inserted_rows"`
	UpdatedRows      int       `db:"updated_rows" json:"updated_rows"`
	FailedRows       int       `db:"failed_rows" json:"failed_rows"`
	Status           string    `db:"status" json:"status"`
	ErrorMessage     string    `db:"error_message" json:"error_message"`
	ValidationErrors string    `db:"validation_errors" json:"validation_errors"`
	ReportPath       string    `db:"report_path" json:"report_path,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// ValidationResult is the validator verdict: ordered messages, valid when
// the list is empty.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// RecordFailure describes one account whose persistence failed during
// reconciliation.
type RecordFailure struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// ImportSummary is the reconciler outcome for one batch. Failed records are
// itemized in Failures rather than only counted.
type ImportSummary struct {
	Processed int             `json:"processed"`
	Inserted  int             `json:"inserted"`
	Updated   int             `json:"updated"`
	Failed    int             `json:"failed"`
	Failures  []RecordFailure `json:"failures,omitempty"`
}

// ImportPreview is what upload inspection reports before anything is
// queued: counts, the validation verdict, and the first few parsed rows.
type ImportPreview struct {
	TotalRecords         int              `json:"total_records"`
	Validation           ValidationResult `json:"validation"`
	PreviewRows          []*BudgetAccount `json:"preview_rows"`
	RequiresConfirmation bool             `json:"requires_confirmation"`
	Warnings             []string         `json:"warnings,omitempty"`
}

// SessionStatusCount aggregates sessions per status for the dashboard.
type SessionStatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

// ImportProgress is the payload published to Redis while a session runs.
type ImportProgress struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
