package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/smart-timetable/internal/models"
)

const subjectColumns = `id, name, code, credits, department, semester, hours_per_week, requires_lab,
COALESCE(scheduling_preference, 'single') AS scheduling_preference,
COALESCE(continuous_block_size, 2) AS continuous_block_size, created_at`

// SubjectRepository reads subjects for scheduling.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListByDepartmentSemester returns every subject a batch of department takes in semester.
func (r *SubjectRepository) ListByDepartmentSemester(ctx context.Context, department string, semester int) ([]models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE department = $1 AND semester = $2 ORDER BY code ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, department, semester); err != nil {
		return nil, fmt.Errorf("list subjects for %s semester %d: %w", department, semester, err)
	}
	return subjects, nil
}

// List returns all subjects.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects ORDER BY code ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID loads a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}
