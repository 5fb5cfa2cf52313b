package service

import "github.com/noah-isme/smart-timetable/internal/models"

const (
	labBlockWidth       = 3
	legacyLabBlockWidth = 4
)

// DecomposeBlocks splits a subject's weekly hours into contiguous session
// blocks. Each block is placed as a unit or not at all.
func DecomposeBlocks(subject models.Subject) []int {
	hours := subject.WeeklyHours()

	if subject.RequiresLab {
		return splitBlocks(hours, labBlockWidth)
	}

	switch subject.Preference() {
	case models.SchedulingDouble:
		return splitBlocks(hours, 2)
	case models.SchedulingTriple:
		return splitBlocks(hours, 3)
	case models.SchedulingLab:
		return splitBlocks(hours, legacyLabBlockWidth)
	default:
		return splitBlocks(hours, 1)
	}
}

// splitBlocks emits width-sized blocks while enough hours remain, then one
// smaller block for any remainder.
func splitBlocks(hours, width int) []int {
	if hours <= 0 {
		return nil
	}
	blocks := make([]int, 0, hours/width+1)
	remaining := hours
	for remaining >= width {
		blocks = append(blocks, width)
		remaining -= width
	}
	if remaining > 0 {
		blocks = append(blocks, remaining)
	}
	return blocks
}

// RequiredPeriods sums the weekly periods demanded by subjects.
func RequiredPeriods(subjects []models.Subject) int {
	total := 0
	for _, subject := range subjects {
		for _, block := range DecomposeBlocks(subject) {
			total += block
		}
	}
	return total
}
