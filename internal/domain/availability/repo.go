package availability

import (
	"context"

	"github.com/google/uuid"

	"github.com/bms/bms/internal/domain/bed"
)

// Filter narrows bulk availability queries.
type Filter struct {
	DepartmentID *uuid.UUID
	BedType      *bed.Type
}

// Repository is the read-side query surface. ListAvailable applies the
// full availability predicate in one query rather than trusting the
// status column alone.
type Repository interface {
	ListAvailable(ctx context.Context, filter Filter, limit, offset int) ([]*bed.Bed, int, error)
}
