package department

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Update(ctx context.Context, d *Department) error
	List(ctx context.Context, limit, offset int) ([]*Department, int, error)
	Stats(ctx context.Context, id uuid.UUID) (*Stats, error)
	StatsAll(ctx context.Context) ([]*Stats, error)
}
