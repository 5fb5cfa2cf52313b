package models

// ClassroomUtilization summarises how a classroom is used across a schedule.
type ClassroomUtilization struct {
	ClassroomID           string        `json:"classroom_id"`
	ClassroomName         string        `json:"classroom_name"`
	ClassroomType         ClassroomType `json:"classroom_type"`
	IsFixedAllocation     bool          `json:"is_fixed_allocation"`
	FixedBatchID          *string       `json:"fixed_batch_id,omitempty"`
	TotalSlotsUsed        int           `json:"total_slots_used"`
	TemporaryAllocations  int           `json:"temporary_allocations"`
	FixedAllocations      int           `json:"fixed_allocations"`
	UtilizationPercentage float64       `json:"utilization_percentage"`
	SharingEfficiency     float64       `json:"sharing_efficiency"`
}

// OptimizationSuggestion is an advisory room swap for an existing entry.
type OptimizationSuggestion struct {
	Entry                ScheduleEntry  `json:"entry"`
	CurrentClassroomID   string         `json:"current_classroom_id"`
	SuggestedClassroomID string         `json:"suggested_classroom_id"`
	CurrentScore         int            `json:"current_score"`
	SuggestedScore       int            `json:"suggested_score"`
	ImprovementScore     int            `json:"improvement_score"`
	AllocationType       AllocationType `json:"allocation_type"`
	Reason               string         `json:"reason"`
}

// BlockStatus tags what happened to one session block during a run.
type BlockStatus string

const (
	BlockScheduled           BlockStatus = "scheduled"
	BlockSkippedExhausted    BlockStatus = "skipped_exhausted"
	BlockSkippedNoCandidates BlockStatus = "skipped_no_candidates"
)

// BlockOutcome reports the fate of one block.
type BlockOutcome struct {
	SubjectID string      `json:"subject_id"`
	BlockSize int         `json:"block_size"`
	Status    BlockStatus `json:"status"`
	Attempts  int         `json:"attempts"`
	Reason    string      `json:"reason,omitempty"`
}

// UtilizationStats are per-run histograms shown alongside each option.
type UtilizationStats struct {
	FacultyHours      map[string]int `json:"faculty_utilization"`
	ClassroomHours    map[string]int `json:"classroom_utilization"`
	DailyDistribution map[int]int    `json:"daily_distribution"`
}
