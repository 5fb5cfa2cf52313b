package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/smart-timetable/internal/models"
)

const timetableColumns = `id, name, batch_id, academic_year, semester, status, timing_config,
COALESCE(college_name, '') AS college_name, score, created_at, updated_at`

const entryColumns = `e.id, e.timetable_id, e.batch_id, e.subject_id, e.faculty_id, e.classroom_id, e.day_of_week,
e.time_slot, e.block_size, e.is_lab, e.is_temporary_allocation, e.original_classroom_owner_id,
e.allocation_reason, e.created_at`

// TimetableRepository persists saved timetables, their entries and the
// classroom allocation ledger.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a timetable header.
func (r *TimetableRepository) Create(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if timetable.BatchID == "" {
		return fmt.Errorf("batch_id is required")
	}
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	if timetable.Status == "" {
		timetable.Status = models.TimetableStatusDraft
	}
	if len(timetable.TimingConfig) == 0 {
		timetable.TimingConfig = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = now
	}
	timetable.UpdatedAt = now

	const query = `
INSERT INTO timetables (id, name, batch_id, academic_year, semester, status, timing_config, college_name, score, created_at, updated_at)
VALUES (:id, :name, :batch_id, :academic_year, :semester, :status, :timing_config, :college_name, :score, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, timetable); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	return nil
}

// InsertEntries stores schedule entries under timetableID.
func (r *TimetableRepository) InsertEntries(ctx context.Context, exec sqlx.ExtContext, timetableID string, entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_entries (id, timetable_id, batch_id, subject_id, faculty_id, classroom_id, day_of_week, time_slot,
block_size, is_lab, is_temporary_allocation, original_classroom_owner_id, allocation_reason, created_at)
VALUES (:id, :timetable_id, :batch_id, :subject_id, :faculty_id, :classroom_id, :day_of_week, :time_slot,
:block_size, :is_lab, :is_temporary_allocation, :original_classroom_owner_id, :allocation_reason, :created_at)`

	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.TimetableID = timetableID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}
	return nil
}

// InsertAllocations appends classroom ledger rows under timetableID.
func (r *TimetableRepository) InsertAllocations(ctx context.Context, exec sqlx.ExtContext, timetableID string, ledger []models.AllocationLedgerEntry) error {
	if len(ledger) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO classroom_allocations (id, timetable_id, classroom_id, batch_id, day_of_week, time_slot, allocation_type, priority_score, created_at)
VALUES (:id, :timetable_id, :classroom_id, :batch_id, :day_of_week, :time_slot, :allocation_type, :priority_score, :created_at)`

	for i := range ledger {
		row := &ledger[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		row.TimetableID = timetableID
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, row); err != nil {
			return fmt.Errorf("insert classroom allocation: %w", err)
		}
	}
	return nil
}

// List returns timetables filtered by batch and status, newest first.
func (r *TimetableRepository) List(ctx context.Context, batchID string, status models.TimetableStatus) ([]models.Timetable, error) {
	var conditions []string
	var args []interface{}
	if batchID != "" {
		args = append(args, batchID)
		conditions = append(conditions, fmt.Sprintf("batch_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + timetableColumns + ` FROM timetables`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, args...); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return timetables, nil
}

// FindByID loads a timetable header.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetables WHERE id = $1`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// ListEntries returns the entries of one timetable ordered by day and slot.
func (r *TimetableRepository) ListEntries(ctx context.Context, timetableID string) ([]models.ScheduleEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM timetable_entries e WHERE e.timetable_id = $1 ORDER BY e.day_of_week ASC, e.time_slot ASC`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListCommittedEntries returns entries of ACTIVE timetables, skipping
// excludeBatchID when set. exec lets callers read inside a transaction.
func (r *TimetableRepository) ListCommittedEntries(ctx context.Context, exec sqlx.ExtContext, excludeBatchID string) ([]models.ScheduleEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM timetable_entries e
JOIN timetables t ON t.id = e.timetable_id
WHERE t.status = $1 AND ($2 = '' OR t.batch_id <> $2)
ORDER BY e.day_of_week ASC, e.time_slot ASC`
	var entries []models.ScheduleEntry
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, models.TimetableStatusActive, excludeBatchID); err != nil {
		return nil, fmt.Errorf("list committed timetable entries: %w", err)
	}
	return entries, nil
}

// ArchiveActive archives every ACTIVE timetable of batchID except keepID.
func (r *TimetableRepository) ArchiveActive(ctx context.Context, exec sqlx.ExtContext, batchID, keepID string) error {
	const query = `UPDATE timetables SET status = $1, updated_at = $2 WHERE batch_id = $3 AND status = $4 AND id <> $5`
	if _, err := r.exec(exec).ExecContext(ctx, query, models.TimetableStatusArchived, time.Now().UTC(), batchID, models.TimetableStatusActive, keepID); err != nil {
		return fmt.Errorf("archive active timetables: %w", err)
	}
	return nil
}

// Delete removes a timetable; entries and ledger rows cascade.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetables WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
