package models

import (
	"fmt"
	"strings"
	"time"
)

// Batch is a student cohort sharing one timetable.
type Batch struct {
	ID                    string    `db:"id" json:"id" csv:"id"`
	Name                  string    `db:"name" json:"name" csv:"name"`
	Department            string    `db:"department" json:"department" csv:"department"`
	Branch                string    `db:"branch" json:"branch" csv:"branch"`
	Section               string    `db:"section" json:"section" csv:"section"`
	Semester              int       `db:"semester" json:"semester" csv:"semester"`
	AcademicYear          string    `db:"academic_year" json:"academic_year,omitempty" csv:"academic_year"`
	StudentCount          int       `db:"student_count" json:"student_count" csv:"student_count"`
	PriorityForAllocation int       `db:"priority_for_allocation" json:"priority_for_allocation" csv:"priority_for_allocation"`
	CreatedAt             time.Time `db:"created_at" json:"created_at" csv:"-"`
}

// ParseBatchName splits names such as "CSE-A-2025" into branch and section.
// Names without a separator fall back to section "A".
func ParseBatchName(name string) (branch, section string) {
	parts := strings.Split(name, "-")
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return name, "A"
}

// BatchName builds the standard "BRANCH-SECTION-YEAR" name.
func BatchName(branch, section string, year int) string {
	return fmt.Sprintf("%s-%s-%d", branch, section, year)
}
