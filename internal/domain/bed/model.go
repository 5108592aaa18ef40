package bed

import (
	"time"

	"github.com/google/uuid"

	"github.com/bms/bms/internal/platform/apperr"
)

// Status is the bed lifecycle state.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusMaintenance Status = "maintenance"
	StatusCleaning    Status = "cleaning"
	StatusReserved    Status = "reserved"
	StatusBlocked     Status = "blocked"
)

var validStatuses = map[Status]bool{
	StatusAvailable:   true,
	StatusOccupied:    true,
	StatusMaintenance: true,
	StatusCleaning:    true,
	StatusReserved:    true,
	StatusBlocked:     true,
}

// ValidStatus reports whether s is a known bed status.
func ValidStatus(s Status) bool { return validStatuses[s] }

// Type categorizes the physical bed.
type Type string

const (
	TypeStandard  Type = "standard"
	TypeICU       Type = "icu"
	TypeIsolation Type = "isolation"
	TypePediatric Type = "pediatric"
	TypeMaternity Type = "maternity"
)

// Bed maps to the beds table. Number is unique within a tenant.
type Bed struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Number       string    `db:"number" json:"number"`
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
	BedType      Type      `db:"bed_type" json:"bed_type"`
	Floor        *string   `db:"floor" json:"floor,omitempty"`
	Wing         *string   `db:"wing" json:"wing,omitempty"`
	Room         *string   `db:"room" json:"room,omitempty"`
	Features     []string  `db:"features" json:"features,omitempty"`
	Status       Status    `db:"status" json:"status"`
	Active       bool      `db:"active" json:"active"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	UpdatedBy    string    `db:"updated_by" json:"updated_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CheckTransition is the status state machine guard for administrative
// status writes. Occupancy is owned by the admission and transfer
// protocols: no administrative write may produce occupied, and a bed may
// only leave occupied once its assignment has been terminated
// (hasActiveAssignment reports the authoritative check made inside the
// same transaction). Moves among the non-occupied states are free.
func CheckTransition(from, to Status, hasActiveAssignment bool) error {
	if !ValidStatus(to) {
		return apperr.Validation("invalid bed status %q", to)
	}
	if to == StatusOccupied {
		return apperr.Validation("bed status cannot be set to occupied directly; occupancy is driven by admissions and transfers")
	}
	if from == StatusOccupied && hasActiveAssignment {
		return apperr.Conflict("bed is occupied by an active assignment; discharge or transfer the patient first")
	}
	return nil
}

// ListFilter narrows bed listings.
type ListFilter struct {
	DepartmentID *uuid.UUID
	BedType      *Type
	Status       *Status
	ActiveOnly   bool
}

// CreateInput is the payload for registering a bed.
type CreateInput struct {
	Number       string    `json:"number"`
	DepartmentID uuid.UUID `json:"department_id"`
	BedType      Type      `json:"bed_type"`
	Floor        *string   `json:"floor,omitempty"`
	Wing         *string   `json:"wing,omitempty"`
	Room         *string   `json:"room,omitempty"`
	Features     []string  `json:"features,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
}

// UpdateInput is a partial update; nil fields are left untouched.
// Status changes go through the transition guard.
type UpdateInput struct {
	Number   *string   `json:"number,omitempty"`
	BedType  *Type     `json:"bed_type,omitempty"`
	Floor    *string   `json:"floor,omitempty"`
	Wing     *string   `json:"wing,omitempty"`
	Room     *string   `json:"room,omitempty"`
	Features []string  `json:"features,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
	Status   *Status   `json:"status,omitempty"`
}
