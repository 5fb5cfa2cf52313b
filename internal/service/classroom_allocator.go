package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/smart-timetable/internal/models"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
)

// SuggestionMargin is how many points the best alternative room must beat the
// current room by before an optimisation suggestion is emitted.
const SuggestionMargin = 50

// Availability is the outcome of checking one classroom for one request.
type Availability struct {
	Available     bool                  `json:"available"`
	Type          models.AllocationType `json:"allocation_type"`
	OriginalOwner string                `json:"original_owner,omitempty"`
	Reason        string                `json:"reason"`
}

// Temporary reports whether the availability is a borrow of another batch's room.
func (a Availability) Temporary() bool {
	return a.Type == models.AllocationTemporaryBorrow
}

// RoomOption is an available classroom ranked by priority score.
type RoomOption struct {
	Classroom models.Classroom `json:"classroom"`
	Score     int              `json:"priority_score"`
	Availability
}

// AllocationReason maps the option to the reason recorded on schedule entries.
func (o RoomOption) AllocationReason() models.AllocationReason {
	switch o.Type {
	case models.AllocationTemporaryBorrow:
		return models.AllocationReasonBorrowedDuringLab
	case models.AllocationFixedOwn:
		return models.AllocationReasonFixedClassroom
	default:
		return models.AllocationReasonNone
	}
}

// ClassroomAllocator scores and filters classrooms for a batch at a slot,
// including the temporary-borrow rule for fixed rooms whose owner is in a lab.
type ClassroomAllocator struct {
	classrooms []models.Classroom
	byID       map[string]models.Classroom
}

// NewClassroomAllocator indexes classrooms in id order.
func NewClassroomAllocator(classrooms []models.Classroom) *ClassroomAllocator {
	sorted := make([]models.Classroom, len(classrooms))
	copy(sorted, classrooms)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	byID := make(map[string]models.Classroom, len(sorted))
	for _, room := range sorted {
		byID[room.ID] = room
	}
	return &ClassroomAllocator{classrooms: sorted, byID: byID}
}

// Classrooms returns the rooms known to the allocator.
func (a *ClassroomAllocator) Classrooms() []models.Classroom {
	return a.classrooms
}

// Classroom looks a room up by id.
func (a *ClassroomAllocator) Classroom(id string) (models.Classroom, bool) {
	room, ok := a.byID[id]
	return room, ok
}

// CheckAvailability runs the availability state machine for room. Apart from
// rooms held by another batch, a room smaller than the batch always reports
// insufficient capacity, borrows included.
func (a *ClassroomAllocator) CheckAvailability(room models.Classroom, batch models.Batch, day int, slot string, occ *Occupancy) Availability {
	if holder, held := occ.RoomHolder(room.ID, day, slot); held {
		if holder.BatchID != batch.ID {
			return Availability{
				Type:   models.AllocationOccupied,
				Reason: fmt.Sprintf("occupied by batch %s", holder.BatchID),
			}
		}
		return withCapacity(Availability{
			Available: true,
			Type:      models.AllocationOwnExisting,
			Reason:    "already allocated to same batch",
		}, room, batch)
	}

	if room.IsFixedAllocation {
		owner := room.FixedOwner()
		if owner == batch.ID {
			return withCapacity(Availability{
				Available: true,
				Type:      models.AllocationFixedOwn,
				Reason:    "own fixed classroom",
			}, room, batch)
		}
		if owner != "" && room.CanBeShared && occ.BatchHasLab(owner, day, slot) {
			return withCapacity(Availability{
				Available:     true,
				Type:          models.AllocationTemporaryBorrow,
				OriginalOwner: owner,
				Reason:        "fixed owner has lab session",
			}, room, batch)
		}
		return withCapacity(Availability{
			Type:   models.AllocationFixedUnavailable,
			Reason: "fixed to another batch and not shareable",
		}, room, batch)
	}

	return withCapacity(Availability{
		Available: true,
		Type:      models.AllocationRegularAvailable,
		Reason:    "regular classroom available",
	}, room, batch)
}

func withCapacity(result Availability, room models.Classroom, batch models.Batch) Availability {
	if room.Capacity >= batch.StudentCount {
		return result
	}
	return Availability{
		Type:   models.AllocationInsufficientCapacity,
		Reason: fmt.Sprintf("capacity %d below batch size %d", room.Capacity, batch.StudentCount),
	}
}

// PriorityScore ranks room for batch; higher is better. subject may be nil.
func (a *ClassroomAllocator) PriorityScore(batch models.Batch, room models.Classroom, subject *models.Subject) int {
	score := 0

	switch batch.PriorityForAllocation {
	case models.PriorityHigh:
		score += 100
	case models.PriorityMedium:
		score += 50
	default:
		score += 25
	}

	if room.FixedTo(batch.ID) {
		score += 200
	}

	switch room.PriorityLevel {
	case models.PriorityHigh:
		score += 75
	case models.PriorityMedium:
		score += 40
	default:
		score += 15
	}

	if subject != nil {
		switch {
		case subject.RequiresLab && room.Type == models.ClassroomLab:
			score += 150
		case !subject.RequiresLab && room.Type == models.ClassroomRegular:
			score += 50
		case subject.RequiresLab && room.Type == models.ClassroomRegular:
			score -= 50
		}
	}

	if batch.StudentCount > room.Capacity {
		return score - 100
	}
	if room.Capacity > 0 {
		efficiency := float64(batch.StudentCount) / float64(room.Capacity) * 100
		switch {
		case efficiency >= 80:
			score += 30
		case efficiency >= 60:
			score += 20
		case efficiency >= 40:
			score += 10
		}
	}
	return score
}

// FindAvailable returns every classroom available to batch at (day, slot),
// best score first. Ties keep classroom id order.
func (a *ClassroomAllocator) FindAvailable(batch models.Batch, day int, slot string, subject *models.Subject, occ *Occupancy) []RoomOption {
	return a.FindAvailableForRun(batch, day, []string{slot}, subject, occ)
}

// FindAvailableForRun is FindAvailable for a contiguous block: a room qualifies
// only if it is available at every slot of the run. A room borrowed at any
// slot of the run is reported as a borrow.
func (a *ClassroomAllocator) FindAvailableForRun(batch models.Batch, day int, slots []string, subject *models.Subject, occ *Occupancy) []RoomOption {
	if len(slots) == 0 {
		return nil
	}
	var options []RoomOption
	for _, room := range a.classrooms {
		var combined Availability
		ok := true
		for i, slot := range slots {
			avail := a.CheckAvailability(room, batch, day, slot, occ)
			if !avail.Available {
				ok = false
				break
			}
			if i == 0 || avail.Temporary() {
				combined = avail
			}
		}
		if !ok {
			continue
		}
		options = append(options, RoomOption{
			Classroom:    room,
			Score:        a.PriorityScore(batch, room, subject),
			Availability: combined,
		})
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].Score > options[j].Score })
	return options
}

// UtilizationReport summarises classroom usage across entries. slotUniverse is
// the number of bookable periods per room in a week.
func (a *ClassroomAllocator) UtilizationReport(entries models.Schedule, slotUniverse int) []models.ClassroomUtilization {
	total := make(map[string]int)
	temporary := make(map[string]int)
	for _, entry := range entries {
		total[entry.ClassroomID]++
		if entry.IsTemporaryAllocation {
			temporary[entry.ClassroomID]++
		}
	}

	report := make([]models.ClassroomUtilization, 0, len(a.classrooms))
	for _, room := range a.classrooms {
		used := total[room.ID]
		temp := temporary[room.ID]
		row := models.ClassroomUtilization{
			ClassroomID:          room.ID,
			ClassroomName:        room.Name,
			ClassroomType:        room.Type,
			IsFixedAllocation:    room.IsFixedAllocation,
			FixedBatchID:         room.FixedBatchID,
			TotalSlotsUsed:       used,
			TemporaryAllocations: temp,
			FixedAllocations:     used - temp,
		}
		if slotUniverse > 0 {
			row.UtilizationPercentage = round2(float64(used) / float64(slotUniverse) * 100)
		}
		if used > 0 {
			row.SharingEfficiency = round2(float64(temp) / float64(used) * 100)
		}
		report = append(report, row)
	}
	return report
}

// OptimizationSuggestions compares each entry's room with the best room the
// allocator would pick today. It never modifies entries. Entries referencing
// unknown batches, subjects or classrooms fail with a consistency error.
func (a *ClassroomAllocator) OptimizationSuggestions(entries models.Schedule, batches map[string]models.Batch, subjects map[string]models.Subject) ([]models.OptimizationSuggestion, error) {
	occ := NewOccupancy(entries...)
	var suggestions []models.OptimizationSuggestion
	for _, entry := range entries {
		batch, ok := batches[entry.BatchID]
		if !ok {
			return nil, consistencyError("entry references unknown batch %s", entry.BatchID)
		}
		subject, ok := subjects[entry.SubjectID]
		if !ok {
			return nil, consistencyError("entry references unknown subject %s", entry.SubjectID)
		}
		current, ok := a.byID[entry.ClassroomID]
		if !ok {
			return nil, consistencyError("entry references unknown classroom %s", entry.ClassroomID)
		}

		options := a.FindAvailable(batch, entry.DayOfWeek, entry.TimeSlot, &subject, occ)
		if len(options) == 0 {
			continue
		}
		best := options[0]
		currentScore := a.PriorityScore(batch, current, &subject)
		if best.Score <= currentScore+SuggestionMargin {
			continue
		}
		suggestions = append(suggestions, models.OptimizationSuggestion{
			Entry:                entry,
			CurrentClassroomID:   current.ID,
			SuggestedClassroomID: best.Classroom.ID,
			CurrentScore:         currentScore,
			SuggestedScore:       best.Score,
			ImprovementScore:     best.Score - currentScore,
			AllocationType:       best.Type,
			Reason:               fmt.Sprintf("better match: %s", best.Type),
		})
	}
	return suggestions, nil
}

func consistencyError(format string, args ...any) error {
	return appErrors.Clonef(appErrors.ErrConsistencyViolation, format, args...)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
