package transfer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bms/bms/internal/domain/assignment"
	"github.com/bms/bms/internal/domain/bed"
	"github.com/bms/bms/internal/platform/apperr"
	"github.com/bms/bms/internal/platform/db"
)

// Notifier delivers best-effort outbound notices. Delivery failures are
// the notifier's problem; the transfer protocol never sees them.
type Notifier interface {
	Notify(ctx context.Context, templateID, recipient string, data map[string]string)
}

// Service coordinates patient transfers between beds. Requesting a
// transfer only snapshots availability; the authoritative check happens
// inside the completion transaction, where both beds are locked and the
// five-step swap commits as one unit.
type Service struct {
	repo        Repository
	beds        bed.Repository
	assignments assignment.Repository
	tx          db.Runner
	notifier    Notifier

	// reserveOnSchedule moves an available destination to reserved when
	// a transfer with a future scheduled time is requested.
	reserveOnSchedule bool
}

func NewService(repo Repository, beds bed.Repository, assignments assignment.Repository, tx db.Runner, notifier Notifier, reserveOnSchedule bool) *Service {
	if tx == nil {
		tx = db.RunInTx
	}
	return &Service{
		repo:              repo,
		beds:              beds,
		assignments:       assignments,
		tx:                tx,
		notifier:          notifier,
		reserveOnSchedule: reserveOnSchedule,
	}
}

// Request records a transfer request. The destination availability check
// here is advisory: it fails fast on an obviously bad request but is
// re-validated at completion time.
func (s *Service) Request(ctx context.Context, in RequestInput, actor string) (*Transfer, error) {
	if in.FromBedID == uuid.Nil || in.ToBedID == uuid.Nil {
		return nil, apperr.Validation("from_bed_id and to_bed_id are required")
	}
	if in.FromBedID == in.ToBedID {
		return nil, apperr.Validation("source and destination beds must differ")
	}
	if in.PatientID == uuid.Nil {
		return nil, apperr.Validation("patient_id is required")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperr.Validation("reason is required")
	}
	if in.Priority == "" {
		in.Priority = PriorityRoutine
	}
	if in.ScheduledTime != nil && in.ScheduledTime.Before(time.Now().UTC()) {
		return nil, apperr.Validation("scheduled_time must be in the future")
	}

	var created *Transfer
	err := s.tx(ctx, func(ctx context.Context) error {
		active, err := s.assignments.GetActiveByBed(ctx, in.FromBedID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return apperr.Conflict("source bed has no active assignment")
			}
			return err
		}
		if active.PatientID != in.PatientID {
			return apperr.Conflict("patient %s does not occupy the source bed", in.PatientID)
		}

		dest, err := s.beds.GetForUpdate(ctx, in.ToBedID)
		if err != nil {
			return err
		}
		if !dest.Active {
			return apperr.Conflict("destination bed %s is deactivated", dest.Number)
		}
		if dest.Status != bed.StatusAvailable {
			return apperr.Conflict("destination bed %s is not available (status: %s)", dest.Number, dest.Status)
		}

		t := &Transfer{
			FromBedID: in.FromBedID,
			ToBedID:   in.ToBedID,
			PatientID: in.PatientID,
			Reason:    in.Reason,
			Priority:  in.Priority,
			Notes:     in.Notes,
			Status:    StatusPending,
			CreatedBy: actor,
			UpdatedBy: actor,
		}
		if in.ScheduledTime != nil {
			utc := in.ScheduledTime.UTC()
			t.ScheduledTime = &utc
			t.Status = StatusScheduled

			if s.reserveOnSchedule {
				if err := s.beds.UpdateStatus(ctx, dest.ID, bed.StatusReserved, actor); err != nil {
					return err
				}
				t.ReservedDestination = true
			}
		}

		if err := s.repo.Create(ctx, t); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Complete executes the transfer as one atomic unit: terminate the
// source assignment, create the destination assignment, free the source
// bed, occupy the destination bed, finalize the transfer. Both bed rows
// are locked in id order before anything is checked, which closes the
// window between request-time and completion-time availability and
// guarantees that two completions racing for one destination end with
// exactly one success.
func (s *Service) Complete(ctx context.Context, transferID uuid.UUID, actor string) (*Transfer, error) {
	var (
		completed       *Transfer
		srcNum, destNum string
	)
	err := s.tx(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if Terminal(t.Status) {
			return apperr.Conflict("transfer %s is already %s", t.ID, t.Status)
		}

		src, dest, err := s.lockBedPair(ctx, t.FromBedID, t.ToBedID)
		if err != nil {
			return err
		}
		srcNum, destNum = src.Number, dest.Number

		if !dest.Active {
			return apperr.Conflict("destination bed %s is deactivated", dest.Number)
		}
		switch dest.Status {
		case bed.StatusAvailable:
		case bed.StatusReserved:
			if !t.ReservedDestination {
				return apperr.Conflict("destination bed %s is reserved by another request", dest.Number)
			}
		default:
			return apperr.Conflict("destination bed %s is no longer available (status: %s)", dest.Number, dest.Status)
		}
		destBusy, err := s.assignments.BedHasActive(ctx, dest.ID)
		if err != nil {
			return err
		}
		if destBusy {
			return apperr.Conflict("destination bed %s already has an active assignment", dest.Number)
		}

		active, err := s.assignments.GetActiveByBed(ctx, src.ID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return apperr.Conflict("source bed %s has no active assignment", src.Number)
			}
			return err
		}
		if active.PatientID != t.PatientID {
			return apperr.Conflict("patient %s no longer occupies source bed %s", t.PatientID, src.Number)
		}

		now := time.Now().UTC()
		if err := s.assignments.Terminate(ctx, active.ID, assignment.StatusTransferred, now, actor); err != nil {
			return err
		}

		next := &assignment.Assignment{
			BedID:         dest.ID,
			PatientID:     t.PatientID,
			AdmissionDate: now,
			Status:        assignment.StatusActive,
			Reason:        &t.Reason,
			CreatedBy:     actor,
			UpdatedBy:     actor,
		}
		if err := s.assignments.Create(ctx, next); err != nil {
			return err
		}

		if err := s.beds.UpdateStatus(ctx, src.ID, bed.StatusAvailable, actor); err != nil {
			return err
		}
		if err := s.beds.UpdateStatus(ctx, dest.ID, bed.StatusOccupied, actor); err != nil {
			return err
		}

		t.Status = StatusCompleted
		t.ReservedDestination = false
		t.CompletedAt = &now
		t.CompletedBy = &actor
		t.UpdatedBy = actor
		if err := s.repo.Update(ctx, t); err != nil {
			return err
		}
		completed = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit, best effort.
	if s.notifier != nil {
		s.notifier.Notify(ctx, "transfer-notice", "ward-desk", map[string]string{
			"patient_id": completed.PatientID.String(),
			"from_bed":   srcNum,
			"to_bed":     destNum,
			"date":       completed.CompletedAt.Format(time.RFC3339),
			"reason":     completed.Reason,
		})
	}
	return completed, nil
}

// Cancel finalizes a transfer as cancelled. Legal only from pending or
// scheduled; a reservation this transfer holds is released.
func (s *Service) Cancel(ctx context.Context, transferID uuid.UUID, reason, actor string) (*Transfer, error) {
	var cancelled *Transfer
	err := s.tx(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if Terminal(t.Status) {
			return apperr.Conflict("transfer %s is already %s", t.ID, t.Status)
		}

		if t.ReservedDestination {
			dest, err := s.beds.GetForUpdate(ctx, t.ToBedID)
			if err != nil {
				return err
			}
			if dest.Status == bed.StatusReserved {
				if err := s.beds.UpdateStatus(ctx, dest.ID, bed.StatusAvailable, actor); err != nil {
					return err
				}
			}
			t.ReservedDestination = false
		}

		t.Status = StatusCancelled
		if reason != "" {
			note := "cancelled: " + reason
			if t.Notes != nil && *t.Notes != "" {
				note = *t.Notes + "; " + note
			}
			t.Notes = &note
		}
		t.UpdatedBy = actor
		if err := s.repo.Update(ctx, t); err != nil {
			return err
		}
		cancelled = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transfer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Transfer, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListOpen(ctx context.Context, limit, offset int) ([]*Transfer, int, error) {
	return s.repo.ListOpen(ctx, limit, offset)
}

// lockBedPair locks two bed rows in ascending id order so concurrent
// opposite-direction transfers cannot deadlock, then returns them as
// (source, destination).
func (s *Service) lockBedPair(ctx context.Context, fromID, toID uuid.UUID) (*bed.Bed, *bed.Bed, error) {
	firstID, secondID := fromID, toID
	if strings.Compare(toID.String(), fromID.String()) < 0 {
		firstID, secondID = toID, fromID
	}

	first, err := s.beds.GetForUpdate(ctx, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.beds.GetForUpdate(ctx, secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.ID == fromID {
		return first, second, nil
	}
	return second, first, nil
}
