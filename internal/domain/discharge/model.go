package discharge

import (
	"time"

	"github.com/google/uuid"
)

// Type is the clinical/administrative discharge classification.
type Type string

const (
	TypeRecovered      Type = "recovered"
	TypeTransferredOut Type = "transferred_out"
	TypeAMA            Type = "ama"
	TypeDeceased       Type = "deceased"
)

var validTypes = map[Type]bool{
	TypeRecovered:      true,
	TypeTransferredOut: true,
	TypeAMA:            true,
	TypeDeceased:       true,
}

func ValidType(t Type) bool { return validTypes[t] }

// Discharge maps to the patient_discharges table. Rows are immutable
// once created; they close an assignment and are part of the audit trail.
type Discharge struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	BedID                uuid.UUID  `db:"bed_id" json:"bed_id"`
	PatientID            uuid.UUID  `db:"patient_id" json:"patient_id"`
	AssignmentID         uuid.UUID  `db:"assignment_id" json:"assignment_id"`
	DischargeType        Type       `db:"discharge_type" json:"discharge_type"`
	Summary              *string    `db:"summary" json:"summary,omitempty"`
	BillingStatus        *string    `db:"billing_status" json:"billing_status,omitempty"`
	FollowUpRequired     bool       `db:"follow_up_required" json:"follow_up_required"`
	FollowUpDate         *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	FollowUpInstructions *string    `db:"follow_up_instructions" json:"follow_up_instructions,omitempty"`
	Medications          []string   `db:"medications" json:"medications,omitempty"`
	TransportArrangement *string    `db:"transport_arrangement" json:"transport_arrangement,omitempty"`
	PerformedBy          string     `db:"performed_by" json:"performed_by"`
	DischargeDate        time.Time  `db:"discharge_date" json:"discharge_date"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
}

// HousekeepingTask is the cleaning work order created when a bed is
// vacated. Completing it is what returns the bed to the available pool.
type HousekeepingTask struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	BedID       uuid.UUID  `db:"bed_id" json:"bed_id"`
	DischargeID uuid.UUID  `db:"discharge_id" json:"discharge_id"`
	Status      string     `db:"status" json:"status"`
	RequestedAt time.Time  `db:"requested_at" json:"requested_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletedBy *string    `db:"completed_by" json:"completed_by,omitempty"`
}

const (
	TaskOpen = "open"
	TaskDone = "done"
)

// FollowUpAppointment is the post-discharge appointment record created
// when a discharge requires follow-up.
type FollowUpAppointment struct {
	ID            uuid.UUID `db:"id" json:"id"`
	DischargeID   uuid.UUID `db:"discharge_id" json:"discharge_id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	ScheduledFor  time.Time `db:"scheduled_for" json:"scheduled_for"`
	Instructions  string    `db:"instructions" json:"instructions"`
	CreatedBy     string    `db:"created_by" json:"created_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Input is the payload for discharging a patient.
type Input struct {
	BedID                uuid.UUID  `json:"bed_id"`
	PatientID            uuid.UUID  `json:"patient_id"`
	DischargeType        Type       `json:"discharge_type"`
	Summary              *string    `json:"summary,omitempty"`
	BillingStatus        *string    `json:"billing_status,omitempty"`
	FollowUpRequired     bool       `json:"follow_up_required"`
	FollowUpDate         *time.Time `json:"follow_up_date,omitempty"`
	FollowUpInstructions *string    `json:"follow_up_instructions,omitempty"`
	Medications          []string   `json:"medications,omitempty"`
	TransportArrangement *string    `json:"transport_arrangement,omitempty"`
	NotifyRecipient      string     `json:"notify_recipient,omitempty"`
}
