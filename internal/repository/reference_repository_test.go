package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-timetable/internal/models"
)

func TestBatchRepositoryFindByID(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewBatchRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "department", "branch", "section", "semester", "academic_year", "student_count", "priority_for_allocation", "created_at"}).
		AddRow("B1", "CSE-A-2025", "CSE", "CSE", "A", 3, "2025-26", 45, 1, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM batches WHERE id = $1")).WithArgs("B1").WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM batches WHERE id = $1")).WithArgs("B9").WillReturnError(sql.ErrNoRows)

	batch, err := repo.FindByID(context.Background(), "B1")
	require.NoError(t, err)
	assert.Equal(t, 45, batch.StudentCount)
	assert.Equal(t, models.PriorityHigh, batch.PriorityForAllocation)

	_, err = repo.FindByID(context.Background(), "B9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListByDepartmentSemester(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "code", "credits", "department", "semester", "hours_per_week", "requires_lab", "scheduling_preference", "continuous_block_size", "created_at"}).
		AddRow("math", "Mathematics", "MA301", 4, "CSE", 3, 4, false, "double", 2, time.Now()).
		AddRow("lab", "Networks Lab", "CS391", 2, "CSE", 3, 3, true, "single", 2, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE department = $1 AND semester = $2")).
		WithArgs("CSE", 3).
		WillReturnRows(rows)

	subjects, err := repo.ListByDepartmentSemester(context.Background(), "CSE", 3)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.True(t, subjects[1].RequiresLab)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyRepositoryListAssignments(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewFacultyRepository(db)

	dept := "CSE"
	rows := sqlmock.NewRows([]string{"id", "faculty_id", "subject_id", "department", "branch", "semester", "is_primary", "priority"}).
		AddRow("a1", "f1", "math", dept, nil, 3, true, 1).
		AddRow("a2", "f2", "phy", nil, nil, nil, false, 2)
	mock.ExpectQuery("FROM faculty_subjects WHERE subject_id IN").
		WithArgs("math", "phy").
		WillReturnRows(rows)

	assignments, err := repo.ListAssignments(context.Background(), []string{"math", "phy"})
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.NotNil(t, assignments[0].Department)
	assert.Equal(t, "CSE", *assignments[0].Department)
	require.NotNil(t, assignments[0].Semester)
	assert.Equal(t, 3, *assignments[0].Semester)
	assert.Nil(t, assignments[1].Department)

	empty, err := repo.ListAssignments(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryList(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewClassroomRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "capacity", "type", "equipment", "is_fixed_allocation", "fixed_batch_id", "priority_level", "can_be_shared", "created_at"}).
		AddRow("c-b1", "Room 101", 60, "regular", "", true, "B1", 1, true, time.Now()).
		AddRow("l1", "Lab 1", 40, "lab", "routers", false, nil, 2, false, time.Now())
	mock.ExpectQuery("FROM classrooms ORDER BY id ASC").WillReturnRows(rows)

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.True(t, rooms[0].FixedTo("B1"))
	assert.False(t, rooms[1].FixedTo("B1"))
	assert.Equal(t, models.ClassroomLab, rooms[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
