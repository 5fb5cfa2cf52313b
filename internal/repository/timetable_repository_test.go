package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-timetable/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var entryRowColumns = []string{"id", "timetable_id", "batch_id", "subject_id", "faculty_id", "classroom_id", "day_of_week",
	"time_slot", "block_size", "is_lab", "is_temporary_allocation", "original_classroom_owner_id", "allocation_reason", "created_at"}

func TestTimetableRepositoryCreateDefaults(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectExec("INSERT INTO timetables").WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.Timetable{Name: "CSE A", BatchID: "B1", Semester: 3}
	require.NoError(t, repo.Create(context.Background(), nil, record))
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, models.TimetableStatusDraft, record.Status)
	assert.Equal(t, "{}", string(record.TimingConfig))
	assert.False(t, record.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Error(t, repo.Create(context.Background(), nil, nil))
	assert.Error(t, repo.Create(context.Background(), nil, &models.Timetable{Name: "no batch"}))
}

func TestTimetableRepositoryInsertEntriesInTransaction(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timetable_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO timetable_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO classroom_allocations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	entries := []models.ScheduleEntry{
		{BatchID: "B1", SubjectID: "math", FacultyID: "f1", ClassroomID: "r1", DayOfWeek: 0, TimeSlot: "09:00-09:45", BlockSize: 2, AllocationReason: models.AllocationReasonNone},
		{BatchID: "B1", SubjectID: "math", FacultyID: "f1", ClassroomID: "r1", DayOfWeek: 0, TimeSlot: "09:45-10:30", BlockSize: 2, AllocationReason: models.AllocationReasonNone},
	}
	require.NoError(t, repo.InsertEntries(context.Background(), tx, "tt-1", entries))
	ledger := []models.AllocationLedgerEntry{{ClassroomID: "r1", BatchID: "B1", DayOfWeek: 0, TimeSlot: "09:00-09:45", AllocationType: models.AllocationRegularAvailable, PriorityScore: 120}}
	require.NoError(t, repo.InsertAllocations(context.Background(), tx, "tt-1", ledger))
	require.NoError(t, tx.Commit())

	for _, entry := range entries {
		assert.Equal(t, "tt-1", entry.TimetableID)
		assert.NotEmpty(t, entry.ID)
	}
	assert.Equal(t, "tt-1", ledger[0].TimetableID)
	assert.NoError(t, repo.InsertEntries(context.Background(), nil, "tt-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryList(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "batch_id", "academic_year", "semester", "status", "timing_config", "college_name", "score", "created_at", "updated_at"}).
		AddRow("tt-1", "CSE A", "B1", "2025-26", 3, "ACTIVE", []byte(`{}`), "", 92.5, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetables WHERE batch_id = $1 AND status = $2 ORDER BY created_at DESC")).
		WithArgs("B1", "ACTIVE").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), "B1", models.TimetableStatusActive)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.TimetableStatusActive, list[0].Status)
	assert.Equal(t, 92.5, list[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListCommittedEntries(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	owner := "B3"
	rows := sqlmock.NewRows(entryRowColumns).
		AddRow("e1", "tt-2", "B2", "phy", "f2", "c-b3", 1, "13:15-14:00", 3, false, true, owner, "borrowed_during_lab_session", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("JOIN timetables t ON t.id = e.timetable_id")).
		WithArgs("ACTIVE", "B1").
		WillReturnRows(rows)

	entries, err := repo.ListCommittedEntries(context.Background(), nil, "B1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsTemporaryAllocation)
	require.NotNil(t, entries[0].OriginalOwnerID)
	assert.Equal(t, "B3", *entries[0].OriginalOwnerID)
	assert.Equal(t, models.AllocationReasonBorrowedDuringLab, entries[0].AllocationReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryArchiveActive(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET status = $1")).
		WithArgs("ARCHIVED", sqlmock.AnyArg(), "B1", "ACTIVE", "tt-new").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.ArchiveActive(context.Background(), nil, "B1", "tt-new"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDelete(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetables WHERE id = $1")).
		WithArgs("tt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetables WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "tt-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
