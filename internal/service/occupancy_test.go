package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/smart-timetable/internal/models"
)

func TestOccupancyTracksLoads(t *testing.T) {
	occ := NewOccupancy(
		models.ScheduleEntry{BatchID: "B1", FacultyID: "f1", ClassroomID: "r1", DayOfWeek: 0, TimeSlot: "09:00-09:45"},
		models.ScheduleEntry{BatchID: "B1", FacultyID: "f1", ClassroomID: "l1", DayOfWeek: 0, TimeSlot: "09:45-10:30", IsLab: true},
		models.ScheduleEntry{BatchID: "B2", FacultyID: "f1", ClassroomID: "r2", DayOfWeek: 3, TimeSlot: "09:00-09:45"},
	)

	daily, weekly := occ.FacultyLoad("f1", 0)
	assert.Equal(t, 2, daily)
	assert.Equal(t, 3, weekly)
	assert.Equal(t, 2, occ.BatchLoad("B1", 0))
	assert.True(t, occ.FacultyBusy("f1", 3, "09:00-09:45"))
	assert.True(t, occ.BatchBusy("B1", 0, "09:45-10:30"))
	assert.True(t, occ.BatchHasLab("B1", 0, "09:45-10:30"))
	assert.False(t, occ.BatchHasLab("B1", 0, "09:00-09:45"))

	holder, held := occ.RoomHolder("r1", 0, "09:00-09:45")
	assert.True(t, held)
	assert.Equal(t, "B1", holder.BatchID)
}

func TestOccupancyFirstHolderKeepsRoom(t *testing.T) {
	occ := NewOccupancy(models.ScheduleEntry{BatchID: "B1", ClassroomID: "c1", DayOfWeek: 1, TimeSlot: "13:15-14:00"})
	occ.Add(models.ScheduleEntry{BatchID: "B2", ClassroomID: "c1", DayOfWeek: 1, TimeSlot: "13:15-14:00", IsTemporaryAllocation: true})

	holder, _ := occ.RoomHolder("c1", 1, "13:15-14:00")
	assert.Equal(t, "B1", holder.BatchID)
	assert.True(t, occ.BatchBusy("B2", 1, "13:15-14:00"))
}

func TestOccupancyCloneIsIndependent(t *testing.T) {
	base := NewOccupancy(models.ScheduleEntry{BatchID: "B1", FacultyID: "f1", ClassroomID: "r1", DayOfWeek: 0, TimeSlot: "09:00-09:45"})
	clone := base.Clone()
	clone.Add(models.ScheduleEntry{BatchID: "B1", FacultyID: "f1", ClassroomID: "r1", DayOfWeek: 0, TimeSlot: "09:45-10:30"})

	assert.Equal(t, 1, base.BatchLoad("B1", 0))
	assert.Equal(t, 2, clone.BatchLoad("B1", 0))
	assert.False(t, base.FacultyBusy("f1", 0, "09:45-10:30"))
	_, held := base.RoomHolder("r1", 0, "09:45-10:30")
	assert.False(t, held)
}
