package models

import "time"

// Faculty is a teacher who can be assigned to subjects.
type Faculty struct {
	ID              string    `db:"id" json:"id" csv:"id"`
	Name            string    `db:"name" json:"name" csv:"name"`
	Email           string    `db:"email" json:"email" csv:"email"`
	Department      string    `db:"department" json:"department" csv:"department"`
	Specialization  string    `db:"specialization" json:"specialization" csv:"specialization"`
	MaxHoursPerDay  int       `db:"max_hours_per_day" json:"max_hours_per_day" csv:"max_hours_per_day"`
	MaxHoursPerWeek int       `db:"max_hours_per_week" json:"max_hours_per_week" csv:"max_hours_per_week"`
	CreatedAt       time.Time `db:"created_at" json:"created_at" csv:"-"`
}

// FacultySubjectAssignment maps a faculty member to a subject, optionally
// scoped to a department, branch and semester.
type FacultySubjectAssignment struct {
	ID         string  `db:"id" json:"id" csv:"id"`
	FacultyID  string  `db:"faculty_id" json:"faculty_id" csv:"faculty_id"`
	SubjectID  string  `db:"subject_id" json:"subject_id" csv:"subject_id"`
	Department *string `db:"department" json:"department,omitempty" csv:"department,omitempty"`
	Branch     *string `db:"branch" json:"branch,omitempty" csv:"branch,omitempty"`
	Semester   *int    `db:"semester" json:"semester,omitempty" csv:"semester,omitempty"`
	IsPrimary  bool    `db:"is_primary" json:"is_primary" csv:"is_primary"`
	Priority   int     `db:"priority" json:"priority" csv:"priority"`
}

// FacultyMatchType tags which resolver tier produced a candidate.
type FacultyMatchType string

const (
	FacultyExactMatch         FacultyMatchType = "exact_match"
	FacultyDepartmentMatch    FacultyMatchType = "department_match"
	FacultySubjectMatch       FacultyMatchType = "subject_match"
	FacultyDepartmentFallback FacultyMatchType = "department_fallback"
	FacultyGeneralFallback    FacultyMatchType = "general_fallback"
)

// FacultyCandidate is a ranked faculty option for a subject.
type FacultyCandidate struct {
	Faculty   Faculty          `json:"faculty"`
	IsPrimary bool             `json:"is_primary"`
	Priority  int              `json:"priority"`
	MatchType FacultyMatchType `json:"match_type"`
}
