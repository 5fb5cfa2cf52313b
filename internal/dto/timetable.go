package dto

import (
	"time"

	"github.com/noah-isme/smart-timetable/internal/models"
)

// TimingOverrides replaces parts of the configured college day for one request.
type TimingOverrides struct {
	CollegeStartTime   *string `json:"collegeStartTime" validate:"omitempty,datetime=15:04"`
	CollegeEndTime     *string `json:"collegeEndTime" validate:"omitempty,datetime=15:04"`
	LunchStartTime     *string `json:"lunchBreakStartTime" validate:"omitempty,datetime=15:04"`
	LunchDuration      *int    `json:"lunchBreakDuration" validate:"omitempty,min=0,max=240"`
	IncludeShortBreak  *bool   `json:"includeShortBreak"`
	ShortBreakDuration *int    `json:"shortBreakDuration" validate:"omitempty,min=0,max=60"`
	PeriodLength       *int    `json:"periodLength" validate:"omitempty,min=15,max=180"`
	Days               *int    `json:"days" validate:"omitempty,min=1,max=7"`
}

// GenerateTimetableRequest asks for ranked timetable options for a batch.
type GenerateTimetableRequest struct {
	BatchID    string           `json:"batchId" validate:"required"`
	Semester   int              `json:"semester" validate:"required,min=1,max=12"`
	NumOptions int              `json:"numOptions" validate:"omitempty,min=1,max=10"`
	Seed       *int64           `json:"seed"`
	Timing     *TimingOverrides `json:"timing" validate:"omitempty"`
}

// TimetableOption is one ranked schedule candidate.
type TimetableOption struct {
	OptionID         int                     `json:"optionId"`
	Score            float64                 `json:"score"`
	TotalClasses     int                     `json:"totalClasses"`
	RequiredPeriods  int                     `json:"requiredPeriods"`
	ScheduledPeriods int                     `json:"scheduledPeriods"`
	Complete         bool                    `json:"complete"`
	Entries          []models.ScheduleEntry  `json:"entries"`
	Outcomes         []models.BlockOutcome   `json:"outcomes"`
	Stats            models.UtilizationStats `json:"utilizationStats"`
	Grid             map[string][]GridCell   `json:"grid"`
}

// GridCell is a display cell of the day-by-period view.
type GridCell struct {
	TimeSlot    string `json:"timeSlot"`
	SubjectID   string `json:"subjectId"`
	FacultyID   string `json:"facultyId"`
	ClassroomID string `json:"classroomId"`
	IsLab       bool   `json:"isLab"`
	Temporary   bool   `json:"temporary"`
}

// GenerateTimetableResponse returns the proposal and its ranked options.
type GenerateTimetableResponse struct {
	ProposalID string              `json:"proposalId"`
	BatchID    string              `json:"batchId"`
	Semester   int                 `json:"semester"`
	Timing     models.TimingConfig `json:"timing"`
	TimeSlots  []string            `json:"timeSlots"`
	LabStarts  []string            `json:"labStartTimes"`
	Days       []string            `json:"days"`
	Options    []TimetableOption   `json:"options"`
	ExpiresAt  time.Time           `json:"expiresAt"`
}

// SaveTimetableRequest persists one option of a proposal.
type SaveTimetableRequest struct {
	ProposalID   string `json:"proposalId" validate:"required"`
	OptionID     int    `json:"optionId" validate:"required,min=1"`
	Name         string `json:"name" validate:"required,max=200"`
	AcademicYear string `json:"academicYear" validate:"omitempty,max=20"`
	CollegeName  string `json:"collegeName" validate:"omitempty,max=200"`
	Activate     bool   `json:"activate"`
}

// TimetableQuery filters saved timetables.
type TimetableQuery struct {
	BatchID string `form:"batchId" json:"batchId"`
	Status  string `form:"status" json:"status" validate:"omitempty,oneof=DRAFT ACTIVE ARCHIVED"`
}

// AvailabilityRequest checks which classrooms a batch could use at a slot.
type AvailabilityRequest struct {
	BatchID   string `json:"batchId" validate:"required"`
	SubjectID string `json:"subjectId"`
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=6"`
	TimeSlot  string `json:"timeSlot" validate:"required"`
}

// ClassroomOption is a ranked classroom returned by an availability check.
type ClassroomOption struct {
	ClassroomID    string                `json:"classroomId"`
	ClassroomName  string                `json:"classroomName"`
	Capacity       int                   `json:"capacity"`
	Type           models.ClassroomType  `json:"type"`
	PriorityScore  int                   `json:"priorityScore"`
	AllocationType models.AllocationType `json:"allocationType"`
	Temporary      bool                  `json:"isTemporary"`
	OriginalOwner  string                `json:"originalOwner,omitempty"`
	Reason         string                `json:"reason"`
}

// ReportQuery scopes utilisation and optimisation reports. An empty
// TimetableID covers every saved, non-archived timetable.
type ReportQuery struct {
	TimetableID string `form:"timetableId" json:"timetableId"`
}

// ExportQuery selects the export format.
type ExportQuery struct {
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}

// GenerationJobResponse describes an asynchronous generation request.
type GenerationJobResponse struct {
	JobID      string                     `json:"jobId"`
	Status     string                     `json:"status"`
	Attempts   int                        `json:"attempts"`
	Error      string                     `json:"error,omitempty"`
	Result     *GenerateTimetableResponse `json:"result,omitempty"`
	CreatedAt  time.Time                  `json:"createdAt"`
	FinishedAt *time.Time                 `json:"finishedAt,omitempty"`
}
