package transfer

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
	// GetForUpdate loads the transfer row under a row lock so two
	// concurrent completions of the same request serialize.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Transfer, error)
	Update(ctx context.Context, t *Transfer) error
	List(ctx context.Context, limit, offset int) ([]*Transfer, int, error)
	ListOpen(ctx context.Context, limit, offset int) ([]*Transfer, int, error)
	// OpenReservationForBed finds a non-terminal transfer holding a
	// reservation on the given destination bed, if any.
	OpenReservationForBed(ctx context.Context, bedID uuid.UUID) (*Transfer, error)
}
