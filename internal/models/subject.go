package models

import "time"

// SchedulingPreference controls how a subject's weekly hours are split into blocks.
type SchedulingPreference string

const (
	SchedulingSingle SchedulingPreference = "single"
	SchedulingDouble SchedulingPreference = "double"
	SchedulingTriple SchedulingPreference = "triple"
	// SchedulingLab is the legacy four-period block preference. Subjects that
	// actually need a lab room are flagged with RequiresLab instead.
	SchedulingLab SchedulingPreference = "lab"
)

const (
	DefaultHoursPerWeek        = 3
	DefaultContinuousBlockSize = 2
)

// Subject is a course taught to every batch of a department in a semester.
type Subject struct {
	ID                   string               `db:"id" json:"id" csv:"id"`
	Name                 string               `db:"name" json:"name" csv:"name"`
	Code                 string               `db:"code" json:"code" csv:"code"`
	Credits              int                  `db:"credits" json:"credits" csv:"credits"`
	Department           string               `db:"department" json:"department" csv:"department"`
	Semester             int                  `db:"semester" json:"semester" csv:"semester"`
	HoursPerWeek         int                  `db:"hours_per_week" json:"hours_per_week" csv:"hours_per_week"`
	RequiresLab          bool                 `db:"requires_lab" json:"requires_lab" csv:"requires_lab"`
	SchedulingPreference SchedulingPreference `db:"scheduling_preference" json:"scheduling_preference" csv:"scheduling_preference"`
	ContinuousBlockSize  int                  `db:"continuous_block_size" json:"continuous_block_size" csv:"continuous_block_size"`
	CreatedAt            time.Time            `db:"created_at" json:"created_at" csv:"-"`
}

// WeeklyHours returns the configured hours or the default when unset.
func (s Subject) WeeklyHours() int {
	if s.HoursPerWeek <= 0 {
		return DefaultHoursPerWeek
	}
	return s.HoursPerWeek
}

// Preference returns the scheduling preference, defaulting to single periods.
func (s Subject) Preference() SchedulingPreference {
	if s.SchedulingPreference == "" {
		return SchedulingSingle
	}
	return s.SchedulingPreference
}

// BlockSize returns the continuous block size, defaulting to two periods.
func (s Subject) BlockSize() int {
	if s.ContinuousBlockSize <= 0 {
		return DefaultContinuousBlockSize
	}
	return s.ContinuousBlockSize
}
