package bed

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/bms/bms/internal/platform/apperr"
	"github.com/bms/bms/internal/platform/db"
)

// Service is the bed registry: the one owner of bed creation, attribute
// updates, administrative status changes, and deactivation. Occupancy
// transitions come in only through the admission/transfer/discharge
// protocols, never through this service's status update.
type Service struct {
	repo        Repository
	assignments AssignmentChecker
	departments DepartmentChecker
	tx          db.Runner
}

func NewService(repo Repository, assignments AssignmentChecker, departments DepartmentChecker, tx db.Runner) *Service {
	if tx == nil {
		tx = db.RunInTx
	}
	return &Service{repo: repo, assignments: assignments, departments: departments, tx: tx}
}

func (s *Service) CreateBed(ctx context.Context, in CreateInput, actor string) (*Bed, error) {
	number := strings.TrimSpace(in.Number)
	if number == "" {
		return nil, apperr.Validation("bed number is required")
	}
	if in.DepartmentID == uuid.Nil {
		return nil, apperr.Validation("department_id is required")
	}
	if in.BedType == "" {
		in.BedType = TypeStandard
	}

	ok, err := s.departments.Exists(ctx, in.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Validation("department %s does not exist or is inactive", in.DepartmentID)
	}

	b := &Bed{
		Number:       number,
		DepartmentID: in.DepartmentID,
		BedType:      in.BedType,
		Floor:        in.Floor,
		Wing:         in.Wing,
		Room:         in.Room,
		Features:     in.Features,
		Status:       StatusAvailable,
		Active:       true,
		Notes:        in.Notes,
		CreatedBy:    actor,
		UpdatedBy:    actor,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBeds(ctx context.Context, filter ListFilter, limit, offset int) ([]*Bed, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// UpdateBed applies a partial update. A status change runs through the
// transition guard inside the same transaction that writes it, with the
// bed row locked for the duration.
func (s *Service) UpdateBed(ctx context.Context, id uuid.UUID, in UpdateInput, actor string) (*Bed, error) {
	var updated *Bed
	err := s.tx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if in.Number != nil {
			number := strings.TrimSpace(*in.Number)
			if number == "" {
				return apperr.Validation("bed number cannot be empty")
			}
			b.Number = number
		}
		if in.BedType != nil {
			b.BedType = *in.BedType
		}
		if in.Floor != nil {
			b.Floor = in.Floor
		}
		if in.Wing != nil {
			b.Wing = in.Wing
		}
		if in.Room != nil {
			b.Room = in.Room
		}
		if in.Features != nil {
			b.Features = in.Features
		}
		if in.Notes != nil {
			b.Notes = in.Notes
		}
		if in.Status != nil && *in.Status != b.Status {
			hasActive, err := s.assignments.BedHasActive(ctx, b.ID)
			if err != nil {
				return err
			}
			if err := CheckTransition(b.Status, *in.Status, hasActive); err != nil {
				return err
			}
			b.Status = *in.Status
		}

		b.UpdatedBy = actor
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateStatus is the administrative status action (maintenance,
// cleaning, reserved, blocked, back to available). Same guard as
// UpdateBed, exposed as its own operation.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, actor string) (*Bed, error) {
	return s.UpdateBed(ctx, id, UpdateInput{Status: &status}, actor)
}

// Deactivate soft-deletes a bed. Refused while the bed is occupied or
// any active assignment references it.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, actor string) error {
	return s.tx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Status == StatusOccupied {
			return apperr.Unavailable("bed %s is occupied and cannot be deactivated", b.Number)
		}
		hasActive, err := s.assignments.BedHasActive(ctx, b.ID)
		if err != nil {
			return err
		}
		if hasActive {
			return apperr.Unavailable("bed %s has an active assignment and cannot be deactivated", b.Number)
		}

		b.Active = false
		b.Status = StatusBlocked
		b.UpdatedBy = actor
		return s.repo.Update(ctx, b)
	})
}
