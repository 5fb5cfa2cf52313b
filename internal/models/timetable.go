package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AllocationReason explains why an entry landed in its classroom.
type AllocationReason string

const (
	AllocationReasonNone              AllocationReason = "none"
	AllocationReasonFixedClassroom    AllocationReason = "fixed_classroom"
	AllocationReasonBorrowedDuringLab AllocationReason = "borrowed_during_lab_session"
)

// ScheduleEntry is one teaching period of a placed block.
type ScheduleEntry struct {
	ID                    string           `db:"id" json:"id,omitempty" csv:"-"`
	TimetableID           string           `db:"timetable_id" json:"timetable_id,omitempty" csv:"-"`
	BatchID               string           `db:"batch_id" json:"batch_id" csv:"batch_id"`
	SubjectID             string           `db:"subject_id" json:"subject_id" csv:"subject_id"`
	FacultyID             string           `db:"faculty_id" json:"faculty_id" csv:"faculty_id"`
	ClassroomID           string           `db:"classroom_id" json:"classroom_id" csv:"classroom_id"`
	DayOfWeek             int              `db:"day_of_week" json:"day_of_week" csv:"day_of_week"`
	TimeSlot              string           `db:"time_slot" json:"time_slot" csv:"time_slot"`
	BlockSize             int              `db:"block_size" json:"block_size" csv:"block_size"`
	IsLab                 bool             `db:"is_lab" json:"is_lab" csv:"is_lab"`
	IsTemporaryAllocation bool             `db:"is_temporary_allocation" json:"is_temporary_allocation" csv:"is_temporary_allocation"`
	OriginalOwnerID       *string          `db:"original_classroom_owner_id" json:"original_owner_id,omitempty" csv:"original_owner_id,omitempty"`
	AllocationReason      AllocationReason `db:"allocation_reason" json:"allocation_reason" csv:"allocation_reason"`
	CreatedAt             time.Time        `db:"created_at" json:"created_at,omitempty" csv:"-"`
}

// Schedule is the full set of entries produced by one run.
type Schedule []ScheduleEntry

// AllocationType is the classroom availability state that admitted an entry.
type AllocationType string

const (
	AllocationOccupied             AllocationType = "occupied"
	AllocationOwnExisting          AllocationType = "own_existing"
	AllocationFixedOwn             AllocationType = "fixed_own"
	AllocationTemporaryBorrow      AllocationType = "temporary_borrow"
	AllocationFixedUnavailable     AllocationType = "fixed_unavailable"
	AllocationRegularAvailable     AllocationType = "regular_available"
	AllocationInsufficientCapacity AllocationType = "insufficient_capacity"
)

// AllocationLedgerEntry records which batch holds a classroom at a slot.
type AllocationLedgerEntry struct {
	ID             string         `db:"id" json:"id,omitempty"`
	TimetableID    string         `db:"timetable_id" json:"timetable_id,omitempty"`
	ClassroomID    string         `db:"classroom_id" json:"classroom_id"`
	BatchID        string         `db:"batch_id" json:"batch_id"`
	DayOfWeek      int            `db:"day_of_week" json:"day_of_week"`
	TimeSlot       string         `db:"time_slot" json:"time_slot"`
	AllocationType AllocationType `db:"allocation_type" json:"allocation_type"`
	PriorityScore  int            `db:"priority_score" json:"priority_score"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at,omitempty"`
}

// TimetableStatus represents lifecycle phases of a saved timetable.
type TimetableStatus string

const (
	TimetableStatusDraft    TimetableStatus = "DRAFT"
	TimetableStatusActive   TimetableStatus = "ACTIVE"
	TimetableStatusArchived TimetableStatus = "ARCHIVED"
)

// Timetable is a saved, named schedule for a batch and semester.
type Timetable struct {
	ID           string          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	BatchID      string          `db:"batch_id" json:"batch_id"`
	AcademicYear string          `db:"academic_year" json:"academic_year"`
	Semester     int             `db:"semester" json:"semester"`
	Status       TimetableStatus `db:"status" json:"status"`
	TimingConfig types.JSONText  `db:"timing_config" json:"timing_config"`
	CollegeName  string          `db:"college_name" json:"college_name,omitempty"`
	Score        float64         `db:"score" json:"score"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// TimingConfig describes the college day from which the period grid is built.
type TimingConfig struct {
	DayStart           string `json:"college_start_time"`
	DayEnd             string `json:"college_end_time"`
	LunchStart         string `json:"lunch_break_start_time"`
	LunchDuration      int    `json:"lunch_break_duration"`
	IncludeShortBreak  bool   `json:"include_short_break"`
	ShortBreakDuration int    `json:"short_break_duration"`
	PeriodLength       int    `json:"period_length"`
	Days               int    `json:"days"`
}

// DayNames indexes weekday names by DayOfWeek.
var DayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName returns the weekday name for a zero-based index.
func DayName(day int) string {
	if day < 0 || day >= len(DayNames) {
		return ""
	}
	return DayNames[day]
}
