package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bms/bms/internal/domain/bed"
	"github.com/bms/bms/internal/platform/apperr"
	"github.com/bms/bms/internal/platform/db"
)

// Service is the assignment manager: the sole writer of the occupied
// bed state. Admission creates the single active patient-bed binding;
// Terminate closes it on behalf of the discharge and transfer protocols.
type Service struct {
	repo Repository
	beds bed.Repository
	tx   db.Runner
}

func NewService(repo Repository, beds bed.Repository, tx db.Runner) *Service {
	if tx == nil {
		tx = db.RunInTx
	}
	return &Service{repo: repo, beds: beds, tx: tx}
}

// Admit assigns a patient to a bed. The whole protocol runs in one
// transaction with the bed row locked: availability check, double-booking
// checks, assignment insert, and the flip to occupied commit together or
// not at all. A reader can never observe an occupied bed without its
// active assignment, or the reverse.
func (s *Service) Admit(ctx context.Context, in AdmitInput, actor string) (*Assignment, error) {
	if in.BedID == uuid.Nil {
		return nil, apperr.Validation("bed_id is required")
	}
	if in.PatientID == uuid.Nil {
		return nil, apperr.Validation("patient_id is required")
	}
	admission := time.Now().UTC()
	if in.AdmissionDate != nil {
		admission = in.AdmissionDate.UTC()
	}

	var created *Assignment
	err := s.tx(ctx, func(ctx context.Context) error {
		b, err := s.beds.GetForUpdate(ctx, in.BedID)
		if err != nil {
			return err
		}
		if !b.Active {
			return apperr.Conflict("bed %s is deactivated", b.Number)
		}
		if b.Status != bed.StatusAvailable {
			return apperr.Conflict("bed %s is not available (status: %s)", b.Number, b.Status)
		}

		// Re-checked under the bed row lock; the partial unique index is
		// the final backstop if a driver or pool bypasses the lock.
		bedBusy, err := s.repo.BedHasActive(ctx, in.BedID)
		if err != nil {
			return err
		}
		if bedBusy {
			return apperr.Conflict("bed %s already has an active assignment", b.Number)
		}
		patientBusy, err := s.repo.PatientHasActive(ctx, in.PatientID)
		if err != nil {
			return err
		}
		if patientBusy {
			return apperr.Conflict("patient %s already has an active assignment", in.PatientID)
		}

		a := &Assignment{
			BedID:         in.BedID,
			PatientID:     in.PatientID,
			AdmissionDate: admission,
			Status:        StatusActive,
			Reason:        in.Reason,
			Notes:         in.Notes,
			CreatedBy:     actor,
			UpdatedBy:     actor,
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}

		if err := s.beds.UpdateStatus(ctx, in.BedID, bed.StatusOccupied, actor); err != nil {
			return err
		}

		created = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Terminate closes an assignment with the given terminal status. It does
// not touch bed status: discharge and transfer own different bed-status
// outcomes, so the callers write those inside their own transactions.
// Must be called from within a caller-owned transaction context.
func (s *Service) Terminate(ctx context.Context, assignmentID uuid.UUID, final Status, actor string) error {
	if !Terminal(final) {
		return apperr.Validation("%q is not a terminal assignment status", final)
	}
	return s.repo.Terminate(ctx, assignmentID, final, time.Now().UTC(), actor)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetActiveByBed(ctx context.Context, bedID uuid.UUID) (*Assignment, error) {
	return s.repo.GetActiveByBed(ctx, bedID)
}

func (s *Service) GetActiveByPatient(ctx context.Context, patientID uuid.UUID) (*Assignment, error) {
	return s.repo.GetActiveByPatient(ctx, patientID)
}

func (s *Service) ListByBed(ctx context.Context, bedID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	return s.repo.ListByBed(ctx, bedID, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Assignment, int, error) {
	return s.repo.List(ctx, limit, offset)
}
