package models

import "time"

// ClassroomType describes the kind of room.
type ClassroomType string

const (
	ClassroomRegular    ClassroomType = "regular"
	ClassroomLab        ClassroomType = "lab"
	ClassroomAuditorium ClassroomType = "auditorium"
)

// Priority levels shared by classrooms and batches (1 = high).
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// Classroom is a physical room. A fixed-allocation room belongs to one batch
// and may be lent to others while that batch is in a lab.
type Classroom struct {
	ID                string        `db:"id" json:"id" csv:"id"`
	Name              string        `db:"name" json:"name" csv:"name"`
	Capacity          int           `db:"capacity" json:"capacity" csv:"capacity"`
	Type              ClassroomType `db:"type" json:"type" csv:"type"`
	Equipment         string        `db:"equipment" json:"equipment,omitempty" csv:"equipment"`
	IsFixedAllocation bool          `db:"is_fixed_allocation" json:"is_fixed_allocation" csv:"is_fixed_allocation"`
	FixedBatchID      *string       `db:"fixed_batch_id" json:"fixed_batch_id,omitempty" csv:"fixed_batch_id,omitempty"`
	PriorityLevel     int           `db:"priority_level" json:"priority_level" csv:"priority_level"`
	CanBeShared       bool          `db:"can_be_shared" json:"can_be_shared" csv:"can_be_shared"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at" csv:"-"`
}

// FixedTo reports whether the room is permanently reserved for batchID.
func (c Classroom) FixedTo(batchID string) bool {
	return c.IsFixedAllocation && c.FixedBatchID != nil && *c.FixedBatchID == batchID
}

// FixedOwner returns the owning batch of a fixed room, or "".
func (c Classroom) FixedOwner() string {
	if !c.IsFixedAllocation || c.FixedBatchID == nil {
		return ""
	}
	return *c.FixedBatchID
}
