package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/smart-timetable/internal/models"
)

// FacultyRepository reads faculty records and their subject assignments.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs a FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// List returns all faculty ordered by id.
func (r *FacultyRepository) List(ctx context.Context) ([]models.Faculty, error) {
	const query = `SELECT id, name, email, department, COALESCE(specialization, '') AS specialization,
max_hours_per_day, max_hours_per_week, created_at FROM faculty ORDER BY id ASC`
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return faculty, nil
}

// ListAssignments returns faculty-subject assignments for the given subjects.
func (r *FacultyRepository) ListAssignments(ctx context.Context, subjectIDs []string) ([]models.FacultySubjectAssignment, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, faculty_id, subject_id, department, branch, semester, is_primary, priority
FROM faculty_subjects WHERE subject_id IN (?) ORDER BY priority ASC, is_primary DESC, faculty_id ASC`, subjectIDs)
	if err != nil {
		return nil, fmt.Errorf("build faculty assignment query: %w", err)
	}
	var assignments []models.FacultySubjectAssignment
	if err := r.db.SelectContext(ctx, &assignments, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list faculty assignments: %w", err)
	}
	return assignments, nil
}
