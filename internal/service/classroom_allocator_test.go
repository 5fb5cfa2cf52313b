package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-timetable/internal/models"
	appErrors "github.com/noah-isme/smart-timetable/pkg/errors"
)

const tuesday = 1

func TestClassroomAllocatorRejectsSmallRooms(t *testing.T) {
	allocator := NewClassroomAllocator([]models.Classroom{
		{ID: "r-small", Capacity: 30, Type: models.ClassroomRegular},
		{ID: "r-large", Capacity: 60, Type: models.ClassroomRegular},
	})
	batch := models.Batch{ID: "b1", StudentCount: 45}
	occ := NewOccupancy()

	for day := 0; day < 6; day++ {
		options := allocator.FindAvailable(batch, day, "09:00-09:45", nil, occ)
		require.Len(t, options, 1)
		assert.Equal(t, "r-large", options[0].Classroom.ID)
	}

	small, _ := allocator.Classroom("r-small")
	avail := allocator.CheckAvailability(small, batch, 0, "09:00-09:45", occ)
	assert.False(t, avail.Available)
	assert.Equal(t, models.AllocationInsufficientCapacity, avail.Type)
}

func TestClassroomAllocatorBorrowsWhileOwnerInLab(t *testing.T) {
	room := models.Classroom{ID: "c1", Capacity: 40, Type: models.ClassroomRegular, IsFixedAllocation: true, FixedBatchID: strPtr("B1"), CanBeShared: true}
	allocator := NewClassroomAllocator([]models.Classroom{room})
	occ := NewOccupancy(models.ScheduleEntry{
		BatchID: "B1", SubjectID: "lab", FacultyID: "f1", ClassroomID: "lab-1",
		DayOfWeek: tuesday, TimeSlot: "13:30-14:15", IsLab: true,
	})
	borrower := models.Batch{ID: "B2", StudentCount: 35}

	options := allocator.FindAvailable(borrower, tuesday, "13:30-14:15", nil, occ)
	require.Len(t, options, 1)
	assert.Equal(t, "c1", options[0].Classroom.ID)
	assert.Equal(t, models.AllocationTemporaryBorrow, options[0].Type)
	assert.Equal(t, "B1", options[0].OriginalOwner)
	assert.True(t, options[0].Temporary())
	assert.Equal(t, models.AllocationReasonBorrowedDuringLab, options[0].AllocationReason())

	avail := allocator.CheckAvailability(room, borrower, tuesday, "14:15-15:00", occ)
	assert.False(t, avail.Available)
	assert.Equal(t, models.AllocationFixedUnavailable, avail.Type)

	own := allocator.CheckAvailability(room, models.Batch{ID: "B1", StudentCount: 40}, tuesday, "14:15-15:00", occ)
	assert.True(t, own.Available)
	assert.Equal(t, models.AllocationFixedOwn, own.Type)
}

func TestClassroomAllocatorBorrowNeedsCapacity(t *testing.T) {
	room := models.Classroom{ID: "c1", Capacity: 20, Type: models.ClassroomRegular, IsFixedAllocation: true, FixedBatchID: strPtr("B1"), CanBeShared: true}
	allocator := NewClassroomAllocator([]models.Classroom{room})
	occ := NewOccupancy(models.ScheduleEntry{
		BatchID: "B1", ClassroomID: "lab-1", DayOfWeek: tuesday, TimeSlot: "13:15-14:00", IsLab: true,
	})
	large := models.Batch{ID: "B2", StudentCount: 45}

	avail := allocator.CheckAvailability(room, large, tuesday, "13:15-14:00", occ)
	assert.False(t, avail.Available)
	assert.Equal(t, models.AllocationInsufficientCapacity, avail.Type)
	assert.Empty(t, allocator.FindAvailable(large, tuesday, "13:15-14:00", nil, occ))

	notShared := allocator.CheckAvailability(room, large, tuesday, "14:00-14:45", occ)
	assert.Equal(t, models.AllocationInsufficientCapacity, notShared.Type)

	small := allocator.CheckAvailability(room, models.Batch{ID: "B2", StudentCount: 20}, tuesday, "13:15-14:00", occ)
	assert.True(t, small.Available)
	assert.Equal(t, models.AllocationTemporaryBorrow, small.Type)
}

func TestClassroomAllocatorFixedRoomNotShareable(t *testing.T) {
	room := models.Classroom{ID: "c1", Capacity: 40, IsFixedAllocation: true, FixedBatchID: strPtr("B1")}
	allocator := NewClassroomAllocator([]models.Classroom{room})
	occ := NewOccupancy(models.ScheduleEntry{BatchID: "B1", ClassroomID: "lab-1", DayOfWeek: 0, TimeSlot: "09:00-09:45", IsLab: true})

	avail := allocator.CheckAvailability(room, models.Batch{ID: "B2", StudentCount: 20}, 0, "09:00-09:45", occ)
	assert.False(t, avail.Available)
	assert.Equal(t, models.AllocationFixedUnavailable, avail.Type)
}

func TestClassroomAllocatorOccupiedRooms(t *testing.T) {
	room := models.Classroom{ID: "r1", Capacity: 50, Type: models.ClassroomRegular}
	allocator := NewClassroomAllocator([]models.Classroom{room})
	occ := NewOccupancy(models.ScheduleEntry{BatchID: "B1", ClassroomID: "r1", DayOfWeek: 2, TimeSlot: "10:30-11:15"})

	other := allocator.CheckAvailability(room, models.Batch{ID: "B2", StudentCount: 10}, 2, "10:30-11:15", occ)
	assert.False(t, other.Available)
	assert.Equal(t, models.AllocationOccupied, other.Type)
	assert.Contains(t, other.Reason, "B1")

	same := allocator.CheckAvailability(room, models.Batch{ID: "B1", StudentCount: 40}, 2, "10:30-11:15", occ)
	assert.True(t, same.Available)
	assert.Equal(t, models.AllocationOwnExisting, same.Type)
}

func TestClassroomAllocatorRunNeedsEverySlot(t *testing.T) {
	allocator := NewClassroomAllocator([]models.Classroom{
		{ID: "r1", Capacity: 50, Type: models.ClassroomRegular},
		{ID: "r2", Capacity: 50, Type: models.ClassroomRegular},
	})
	occ := NewOccupancy(models.ScheduleEntry{BatchID: "B9", ClassroomID: "r1", DayOfWeek: 0, TimeSlot: "09:45-10:30"})
	batch := models.Batch{ID: "B1", StudentCount: 40}

	options := allocator.FindAvailableForRun(batch, 0, []string{"09:00-09:45", "09:45-10:30"}, nil, occ)
	require.Len(t, options, 1)
	assert.Equal(t, "r2", options[0].Classroom.ID)
	assert.Nil(t, allocator.FindAvailableForRun(batch, 0, nil, nil, occ))
}

func TestClassroomAllocatorPriorityScore(t *testing.T) {
	allocator := NewClassroomAllocator(nil)
	lab := models.Subject{ID: "s-lab", RequiresLab: true}
	theory := models.Subject{ID: "s-theory"}

	high := models.Batch{ID: "B1", StudentCount: 45, PriorityForAllocation: models.PriorityHigh}
	ownLab := models.Classroom{ID: "l1", Capacity: 50, Type: models.ClassroomLab, PriorityLevel: models.PriorityMedium, IsFixedAllocation: true, FixedBatchID: strPtr("B1")}
	assert.Equal(t, 100+200+40+150+30, allocator.PriorityScore(high, ownLab, &lab))

	low := models.Batch{ID: "B2", StudentCount: 45, PriorityForAllocation: models.PriorityLow}
	cramped := models.Classroom{ID: "r1", Capacity: 30, Type: models.ClassroomRegular, PriorityLevel: models.PriorityLow}
	assert.Equal(t, 25+15+50-100, allocator.PriorityScore(low, cramped, &theory))

	medium := models.Batch{ID: "B3", StudentCount: 30, PriorityForAllocation: models.PriorityMedium}
	regular := models.Classroom{ID: "r2", Capacity: 60, Type: models.ClassroomRegular, PriorityLevel: models.PriorityHigh}
	assert.Equal(t, 50+75-50+10, allocator.PriorityScore(medium, regular, &lab))
	assert.Equal(t, 50+75+10, allocator.PriorityScore(medium, regular, nil))
}

func TestClassroomAllocatorRanksBestFirst(t *testing.T) {
	allocator := NewClassroomAllocator([]models.Classroom{
		{ID: "r-b", Capacity: 100, Type: models.ClassroomRegular, PriorityLevel: models.PriorityLow},
		{ID: "r-a", Capacity: 100, Type: models.ClassroomRegular, PriorityLevel: models.PriorityLow},
		{ID: "r-best", Capacity: 40, Type: models.ClassroomRegular, PriorityLevel: models.PriorityHigh},
	})
	options := allocator.FindAvailable(models.Batch{ID: "B1", StudentCount: 35}, 0, "09:00-09:45", nil, NewOccupancy())

	require.Len(t, options, 3)
	assert.Equal(t, []string{"r-best", "r-a", "r-b"}, []string{options[0].Classroom.ID, options[1].Classroom.ID, options[2].Classroom.ID})
	assert.Greater(t, options[0].Score, options[1].Score)
	assert.Equal(t, options[1].Score, options[2].Score)
}

func TestClassroomAllocatorUtilizationReport(t *testing.T) {
	allocator := NewClassroomAllocator([]models.Classroom{
		{ID: "r1", Name: "Room 1", Capacity: 60},
		{ID: "r2", Name: "Room 2", Capacity: 60, IsFixedAllocation: true, FixedBatchID: strPtr("B1")},
	})
	entries := models.Schedule{
		{ClassroomID: "r2", DayOfWeek: 0, TimeSlot: "09:00-09:45"},
		{ClassroomID: "r2", DayOfWeek: 0, TimeSlot: "09:45-10:30"},
		{ClassroomID: "r2", DayOfWeek: 1, TimeSlot: "13:15-14:00", IsTemporaryAllocation: true, OriginalOwnerID: strPtr("B1")},
	}

	report := allocator.UtilizationReport(entries, 48)
	require.Len(t, report, 2)

	assert.Equal(t, "r1", report[0].ClassroomID)
	assert.Zero(t, report[0].TotalSlotsUsed)
	assert.Zero(t, report[0].UtilizationPercentage)
	assert.Zero(t, report[0].SharingEfficiency)

	assert.Equal(t, "r2", report[1].ClassroomID)
	assert.Equal(t, 3, report[1].TotalSlotsUsed)
	assert.Equal(t, 1, report[1].TemporaryAllocations)
	assert.Equal(t, 2, report[1].FixedAllocations)
	assert.Equal(t, 6.25, report[1].UtilizationPercentage)
	assert.Equal(t, 33.33, report[1].SharingEfficiency)
	assert.True(t, report[1].IsFixedAllocation)
}

func TestClassroomAllocatorOptimizationSuggestions(t *testing.T) {
	allocator := NewClassroomAllocator([]models.Classroom{
		{ID: "r1", Capacity: 60, Type: models.ClassroomRegular, PriorityLevel: models.PriorityLow},
		{ID: "l1", Capacity: 40, Type: models.ClassroomLab, PriorityLevel: models.PriorityHigh},
	})
	batches := map[string]models.Batch{"B1": {ID: "B1", StudentCount: 30, PriorityForAllocation: models.PriorityMedium}}
	subjects := map[string]models.Subject{"s-lab": {ID: "s-lab", RequiresLab: true}}
	entries := models.Schedule{{BatchID: "B1", SubjectID: "s-lab", FacultyID: "f1", ClassroomID: "r1", DayOfWeek: 0, TimeSlot: "09:00-09:45", IsLab: true}}

	suggestions, err := allocator.OptimizationSuggestions(entries, batches, subjects)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "r1", suggestions[0].CurrentClassroomID)
	assert.Equal(t, "l1", suggestions[0].SuggestedClassroomID)
	assert.Equal(t, 25, suggestions[0].CurrentScore)
	assert.Equal(t, 295, suggestions[0].SuggestedScore)
	assert.Equal(t, 270, suggestions[0].ImprovementScore)
	assert.Equal(t, "r1", entries[0].ClassroomID, "entries are never modified")

	entries[0].ClassroomID = "l1"
	suggestions, err = allocator.OptimizationSuggestions(entries, batches, subjects)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestClassroomAllocatorSuggestionsRejectUnknownReferences(t *testing.T) {
	allocator := NewClassroomAllocator([]models.Classroom{{ID: "r1", Capacity: 60}})
	batches := map[string]models.Batch{"B1": {ID: "B1"}}
	subjects := map[string]models.Subject{"s1": {ID: "s1"}}

	_, err := allocator.OptimizationSuggestions(models.Schedule{{BatchID: "B1", SubjectID: "s1", ClassroomID: "ghost"}}, batches, subjects)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConsistencyViolation)

	_, err = allocator.OptimizationSuggestions(models.Schedule{{BatchID: "B2", SubjectID: "s1", ClassroomID: "r1"}}, batches, subjects)
	assert.ErrorIs(t, err, appErrors.ErrConsistencyViolation)
}
