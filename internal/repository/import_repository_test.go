package repository

import (
	"testing"
	"time"

	"budget-web/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "session_code", "user_id", "filename", "file_path", "file_size",
		"total_rows", "processed_rows", "inserted_rows", "updated_rows", "failed_rows",
		"status", "error_message", "validation_errors", "report_path",
		"created_at", "updated_at",
	})
}

func addSessionRow(rows *sqlmock.Rows, id int, code, status string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, code, 1, "budget.xlsx", "storage/uploads/"+code+".xlsx", int64(2048),
		100, 100, 80, 20, 0, status, "", "", "", now, now)
}

func TestImportRepositoryCreateSessionAssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportRepository(db)

	mock.ExpectExec("INSERT INTO import_sessions").
		WithArgs("IMPORT-a1b2c3d4", 1, "budget.xlsx", "storage/uploads/IMPORT-a1b2c3d4.xlsx",
			int64(2048), 100, models.ImportStatusQueued, "", "", "").
		WillReturnResult(sqlmock.NewResult(9, 1))

	session := &models.ImportSession{
		SessionCode: "IMPORT-a1b2c3d4",
		UserID:      1,
		Filename:    "budget.xlsx",
		FilePath:    "storage/uploads/IMPORT-a1b2c3d4.xlsx",
		FileSize:    2048,
		TotalRows:   100,
		Status:      models.ImportStatusQueued,
	}
	require.NoError(t, repo.CreateSession(session))
	assert.Equal(t, 9, session.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRepositoryGetSessions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM import_sessions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM import_sessions`).
		WithArgs(10, 0).
		WillReturnRows(addSessionRow(addSessionRow(sessionRows(),
			2, "IMPORT-second", models.ImportStatusProcessing),
			1, "IMPORT-first", models.ImportStatusCompleted))

	sessions, total, err := repo.GetSessions(10, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, sessions, 2)
	assert.Equal(t, "IMPORT-second", sessions[0].SessionCode)
	assert.Equal(t, models.ImportStatusCompleted, sessions[1].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRepositoryGetSessionsFiltersByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM import_sessions WHERE status`).
		WithArgs(models.ImportStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM import_sessions WHERE status`).
		WithArgs(models.ImportStatusCompleted, 10, 0).
		WillReturnRows(addSessionRow(sessionRows(), 1, "IMPORT-first", models.ImportStatusCompleted))

	sessions, total, err := repo.GetSessions(10, 0, models.ImportStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, sessions, 1)
	assert.Equal(t, models.ImportStatusCompleted, sessions[0].Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRepositoryUpdateSessionStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportRepository(db)

	mock.ExpectExec("UPDATE import_sessions SET status").
		WithArgs(models.ImportStatusCanceled, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateSessionStatus(5, models.ImportStatusCanceled))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRepositoryGetStatusCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewImportRepository(db)

	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow(models.ImportStatusCompleted, 7).
			AddRow(models.ImportStatusFailed, 2))

	counts, err := repo.GetStatusCounts()
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, models.ImportStatusCompleted, counts[0].Status)
	assert.Equal(t, 7, counts[0].Count)
	assert.Equal(t, 2, counts[1].Count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
