package service

import "github.com/noah-isme/smart-timetable/internal/models"

type slotKey struct {
	id   string
	day  int
	slot string
}

type dayKey struct {
	id  string
	day int
}

// Occupancy indexes schedule entries by classroom, faculty and batch so the
// allocator and scheduler can answer conflict questions in constant time.
// It is not safe for concurrent use; each candidate run owns its own copy.
type Occupancy struct {
	rooms       map[slotKey]models.ScheduleEntry
	faculty     map[slotKey]struct{}
	batches     map[slotKey]struct{}
	labs        map[slotKey]struct{}
	facultyDay  map[dayKey]int
	facultyWeek map[string]int
	batchDay    map[dayKey]int
}

// NewOccupancy builds an index over entries.
func NewOccupancy(entries ...models.ScheduleEntry) *Occupancy {
	o := &Occupancy{
		rooms:       make(map[slotKey]models.ScheduleEntry),
		faculty:     make(map[slotKey]struct{}),
		batches:     make(map[slotKey]struct{}),
		labs:        make(map[slotKey]struct{}),
		facultyDay:  make(map[dayKey]int),
		facultyWeek: make(map[string]int),
		batchDay:    make(map[dayKey]int),
	}
	for _, entry := range entries {
		o.Add(entry)
	}
	return o
}

// Add records one period. The first entry to claim a classroom slot stays its holder.
func (o *Occupancy) Add(entry models.ScheduleEntry) {
	roomKey := slotKey{id: entry.ClassroomID, day: entry.DayOfWeek, slot: entry.TimeSlot}
	if _, held := o.rooms[roomKey]; !held {
		o.rooms[roomKey] = entry
	}
	o.faculty[slotKey{id: entry.FacultyID, day: entry.DayOfWeek, slot: entry.TimeSlot}] = struct{}{}
	batchKey := slotKey{id: entry.BatchID, day: entry.DayOfWeek, slot: entry.TimeSlot}
	o.batches[batchKey] = struct{}{}
	if entry.IsLab {
		o.labs[batchKey] = struct{}{}
	}
	o.facultyDay[dayKey{id: entry.FacultyID, day: entry.DayOfWeek}]++
	o.facultyWeek[entry.FacultyID]++
	o.batchDay[dayKey{id: entry.BatchID, day: entry.DayOfWeek}]++
}

// Clone returns an independent copy.
func (o *Occupancy) Clone() *Occupancy {
	c := &Occupancy{
		rooms:       make(map[slotKey]models.ScheduleEntry, len(o.rooms)),
		faculty:     make(map[slotKey]struct{}, len(o.faculty)),
		batches:     make(map[slotKey]struct{}, len(o.batches)),
		labs:        make(map[slotKey]struct{}, len(o.labs)),
		facultyDay:  make(map[dayKey]int, len(o.facultyDay)),
		facultyWeek: make(map[string]int, len(o.facultyWeek)),
		batchDay:    make(map[dayKey]int, len(o.batchDay)),
	}
	for k, v := range o.rooms {
		c.rooms[k] = v
	}
	for k := range o.faculty {
		c.faculty[k] = struct{}{}
	}
	for k := range o.batches {
		c.batches[k] = struct{}{}
	}
	for k := range o.labs {
		c.labs[k] = struct{}{}
	}
	for k, v := range o.facultyDay {
		c.facultyDay[k] = v
	}
	for k, v := range o.facultyWeek {
		c.facultyWeek[k] = v
	}
	for k, v := range o.batchDay {
		c.batchDay[k] = v
	}
	return c
}

// RoomHolder returns the entry holding classroomID at (day, slot).
func (o *Occupancy) RoomHolder(classroomID string, day int, slot string) (models.ScheduleEntry, bool) {
	entry, ok := o.rooms[slotKey{id: classroomID, day: day, slot: slot}]
	return entry, ok
}

// FacultyBusy reports whether facultyID already teaches at (day, slot).
func (o *Occupancy) FacultyBusy(facultyID string, day int, slot string) bool {
	_, ok := o.faculty[slotKey{id: facultyID, day: day, slot: slot}]
	return ok
}

// BatchBusy reports whether batchID already attends a class at (day, slot).
func (o *Occupancy) BatchBusy(batchID string, day int, slot string) bool {
	_, ok := o.batches[slotKey{id: batchID, day: day, slot: slot}]
	return ok
}

// BatchHasLab reports whether batchID is in a lab session at (day, slot).
func (o *Occupancy) BatchHasLab(batchID string, day int, slot string) bool {
	_, ok := o.labs[slotKey{id: batchID, day: day, slot: slot}]
	return ok
}

// FacultyLoad returns periods taught by facultyID on day and across the week.
func (o *Occupancy) FacultyLoad(facultyID string, day int) (daily, weekly int) {
	return o.facultyDay[dayKey{id: facultyID, day: day}], o.facultyWeek[facultyID]
}

// BatchLoad returns periods placed for batchID on day.
func (o *Occupancy) BatchLoad(batchID string, day int) int {
	return o.batchDay[dayKey{id: batchID, day: day}]
}
