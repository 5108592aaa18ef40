package discharge

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Discharge) error
	GetByID(ctx context.Context, id uuid.UUID) (*Discharge, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Discharge, int, error)
	List(ctx context.Context, limit, offset int) ([]*Discharge, int, error)

	CreateTask(ctx context.Context, t *HousekeepingTask) error
	GetTaskForUpdate(ctx context.Context, id uuid.UUID) (*HousekeepingTask, error)
	CompleteTask(ctx context.Context, id uuid.UUID, when time.Time, actor string) error
	ListOpenTasks(ctx context.Context, limit, offset int) ([]*HousekeepingTask, int, error)

	CreateFollowUp(ctx context.Context, f *FollowUpAppointment) error
	ListFollowUpsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*FollowUpAppointment, int, error)
}
