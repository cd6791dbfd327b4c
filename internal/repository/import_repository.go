package repository

import (
	"budget-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type ImportRepository struct {
	db *sqlx.DB
}

func NewImportRepository(db *sqlx.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

func (r *ImportRepository) CreateSession(session *models.ImportSession) error {
	query := `INSERT INTO import_sessions (session_code, user_id, filename, file_path, file_size,
	          total_rows, status, error_message, validation_errors, report_path)
	          VALUES (:session_code, :user_id, :filename, :file_path, :file_size,
	          :total_rows, :status, :error_message, :validation_errors, :report_path)`
	result, err := r.db.NamedExec(query, session)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	session.ID = int(id)
	return nil
}

func (r *ImportRepository) GetSessionByID(id int) (*models.ImportSession, error) {
	var session models.ImportSession
	query := "SELECT * FROM import_sessions WHERE id = ? LIMIT 1"
	if err := r.db.Get(&session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ImportRepository) GetSessionByCode(code string) (*models.ImportSession, error) {
	var session models.ImportSession
	query := "SELECT * FROM import_sessions WHERE session_code = ? LIMIT 1"
	if err := r.db.Get(&session, query, code); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ImportRepository) GetSessions(limit, offset int, status string) ([]models.ImportSession, int, error) {
	var sessions []models.ImportSession
	var total int

	whereClause := ""
	args := []interface{}{}

	if status != "" {
		whereClause = "WHERE status = ?"
		args = append(args, status)
	}

	countQuery := "SELECT COUNT(*) FROM import_sessions " + whereClause
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM import_sessions " + whereClause + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	if err := r.db.Select(&sessions, query, args...); err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *ImportRepository) UpdateSession(session *models.ImportSession) error {
	query := `UPDATE import_sessions SET total_rows = :total_rows, processed_rows = :processed_rows,
	          inserted_rows = :inserted_rows, updated_rows = :updated_rows, failed_rows = :failed_rows,
	          status = :status, error_message = :error_message, validation_errors = :validation_errors,
	          report_path = :report_path
	          WHERE id = :id`
	_, err := r.db.NamedExec(query, session)
	return err
}

func (r *ImportRepository) UpdateSessionStatus(id int, status string) error {
	query := "UPDATE import_sessions SET status = ? WHERE id = ?"
	_, err := r.db.Exec(query, status, id)
	return err
}

func (r *ImportRepository) UpdateSessionProgress(id int, processedRows int) error {
	query := "UPDATE import_sessions SET processed_rows = ? WHERE id = ?"
	_, err := r.db.Exec(query, processedRows, id)
	return err
}

func (r *ImportRepository) DeleteSession(id int) error {
	query := "DELETE FROM import_sessions WHERE id = ?"
	_, err := r.db.Exec(query, id)
	return err
}

func (r *ImportRepository) GetStatusCounts() ([]models.SessionStatusCount, error) {
	var counts []models.SessionStatusCount
	query := `SELECT status, COUNT(*) AS count FROM import_sessions GROUP BY status ORDER BY status`
	err := r.db.Select(&counts, query)
	return counts, err
}
