package transfer

import (
	"time"

	"github.com/google/uuid"
)

// Status of a transfer request. Completed and cancelled are terminal;
// rows are never deleted.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether s is a final transfer state.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority of a transfer request.
type Priority string

const (
	PriorityRoutine Priority = "routine"
	PriorityUrgent  Priority = "urgent"
	PriorityStat    Priority = "stat"
)

// Transfer maps to the bed_transfers table. ReservedDestination records
// whether this request moved its destination bed to reserved at request
// time, so cancellation knows to release it and completion knows the
// reserved state is its own claim.
type Transfer struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	FromBedID           uuid.UUID  `db:"from_bed_id" json:"from_bed_id"`
	ToBedID             uuid.UUID  `db:"to_bed_id" json:"to_bed_id"`
	PatientID           uuid.UUID  `db:"patient_id" json:"patient_id"`
	Reason              string     `db:"reason" json:"reason"`
	Priority            Priority   `db:"priority" json:"priority"`
	ScheduledTime       *time.Time `db:"scheduled_time" json:"scheduled_time,omitempty"`
	Status              Status     `db:"status" json:"status"`
	ReservedDestination bool       `db:"reserved_destination" json:"reserved_destination"`
	Notes               *string    `db:"notes" json:"notes,omitempty"`
	CompletedAt         *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletedBy         *string    `db:"completed_by" json:"completed_by,omitempty"`
	CreatedBy           string     `db:"created_by" json:"created_by"`
	UpdatedBy           string     `db:"updated_by" json:"updated_by"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// RequestInput is the payload for requesting a transfer.
type RequestInput struct {
	FromBedID     uuid.UUID  `json:"from_bed_id"`
	ToBedID       uuid.UUID  `json:"to_bed_id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	Reason        string     `json:"reason"`
	Priority      Priority   `json:"priority,omitempty"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}
