package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	GetActiveByBed(ctx context.Context, bedID uuid.UUID) (*Assignment, error)
	GetActiveByPatient(ctx context.Context, patientID uuid.UUID) (*Assignment, error)
	BedHasActive(ctx context.Context, bedID uuid.UUID) (bool, error)
	PatientHasActive(ctx context.Context, patientID uuid.UUID) (bool, error)
	// Terminate moves an active assignment to a terminal status and
	// stamps the discharge date. Fails if the row is already terminal.
	Terminate(ctx context.Context, id uuid.UUID, final Status, when time.Time, actor string) error
	ListByBed(ctx context.Context, bedID uuid.UUID, limit, offset int) ([]*Assignment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error)
	List(ctx context.Context, limit, offset int) ([]*Assignment, int, error)
}
