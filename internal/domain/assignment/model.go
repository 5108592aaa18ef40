package assignment

import (
	"time"

	"github.com/google/uuid"
)

// Status of a patient-bed assignment. Assignments are never deleted;
// terminal rows are the audit trail of occupancy.
type Status string

const (
	StatusActive      Status = "active"
	StatusDischarged  Status = "discharged"
	StatusTransferred Status = "transferred"
)

// Terminal reports whether s closes an assignment.
func Terminal(s Status) bool {
	return s == StatusDischarged || s == StatusTransferred
}

// Assignment maps to the bed_assignments table. At most one row per bed
// and one row per patient may hold status=active, enforced by partial
// unique indexes on top of the in-transaction checks.
type Assignment struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	BedID         uuid.UUID  `db:"bed_id" json:"bed_id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	AdmissionDate time.Time  `db:"admission_date" json:"admission_date"`
	DischargeDate *time.Time `db:"discharge_date" json:"discharge_date,omitempty"`
	Status        Status     `db:"status" json:"status"`
	Reason        *string    `db:"reason" json:"reason,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CreatedBy     string     `db:"created_by" json:"created_by"`
	UpdatedBy     string     `db:"updated_by" json:"updated_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// AdmitInput is the payload for admitting a patient to a bed.
type AdmitInput struct {
	BedID         uuid.UUID  `json:"bed_id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	AdmissionDate *time.Time `json:"admission_date,omitempty"`
	Reason        *string    `json:"reason,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}
