package bed

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *Bed) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bed, error)
	GetByNumber(ctx context.Context, number string) (*Bed, error)
	// GetForUpdate loads the bed row under a row lock. Only meaningful
	// inside a transaction; the admit/transfer/discharge protocols use it
	// to serialize concurrent writers on the same bed.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Bed, error)
	Update(ctx context.Context, b *Bed) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, actor string) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Bed, int, error)
}

// AssignmentChecker answers whether a bed or patient currently has an
// active assignment. Implemented by the assignment repository; declared
// here so the registry can enforce its guards without importing it.
type AssignmentChecker interface {
	BedHasActive(ctx context.Context, bedID uuid.UUID) (bool, error)
}

// DepartmentChecker verifies a department reference on bed creation.
type DepartmentChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
