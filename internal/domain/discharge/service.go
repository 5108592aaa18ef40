package discharge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bms/bms/internal/domain/assignment"
	"github.com/bms/bms/internal/domain/bed"
	"github.com/bms/bms/internal/platform/apperr"
	"github.com/bms/bms/internal/platform/db"
)

// Notifier delivers best-effort outbound notices. Delivery failures are
// the notifier's problem; the discharge protocol never sees them.
type Notifier interface {
	Notify(ctx context.Context, templateID, recipient string, data map[string]string)
}

// Service is the discharge processor. The clinical record, assignment
// termination, bed release, and fan-out rows commit in one transaction;
// notifications go out after the commit and cannot roll it back.
type Service struct {
	repo        Repository
	beds        bed.Repository
	assignments assignment.Repository
	tx          db.Runner
	notifier    Notifier

	// postStatus is the state a vacated bed enters. Never available:
	// beds pass through housekeeping before rejoining the pool.
	postStatus bed.Status
}

func NewService(repo Repository, beds bed.Repository, assignments assignment.Repository, tx db.Runner, notifier Notifier, postStatus bed.Status) *Service {
	if tx == nil {
		tx = db.RunInTx
	}
	if postStatus == "" || postStatus == bed.StatusAvailable {
		postStatus = bed.StatusCleaning
	}
	return &Service{
		repo:        repo,
		beds:        beds,
		assignments: assignments,
		tx:          tx,
		notifier:    notifier,
		postStatus:  postStatus,
	}
}

// Discharge closes the patient's stay in the given bed.
func (s *Service) Discharge(ctx context.Context, in Input, actor string) (*Discharge, error) {
	if in.BedID == uuid.Nil {
		return nil, apperr.Validation("bed_id is required")
	}
	if in.PatientID == uuid.Nil {
		return nil, apperr.Validation("patient_id is required")
	}
	if !ValidType(in.DischargeType) {
		return nil, apperr.Validation("invalid discharge type %q", in.DischargeType)
	}
	if in.FollowUpRequired {
		if in.FollowUpDate == nil {
			return nil, apperr.Validation("follow_up_date is required when follow-up is requested")
		}
		if in.FollowUpInstructions == nil || *in.FollowUpInstructions == "" {
			return nil, apperr.Validation("follow_up_instructions are required when follow-up is requested")
		}
	}

	var (
		created *Discharge
		bedNum  string
	)
	err := s.tx(ctx, func(ctx context.Context) error {
		b, err := s.beds.GetForUpdate(ctx, in.BedID)
		if err != nil {
			return err
		}
		if b.Status != bed.StatusOccupied {
			return apperr.Validation("bed %s is not occupied (status: %s)", b.Number, b.Status)
		}
		bedNum = b.Number

		active, err := s.assignments.GetActiveByBed(ctx, in.BedID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return apperr.Validation("bed %s has no active assignment", b.Number)
			}
			return err
		}
		if active.PatientID != in.PatientID {
			return apperr.Validation("patient %s does not occupy bed %s", in.PatientID, b.Number)
		}

		now := time.Now().UTC()
		d := &Discharge{
			BedID:                in.BedID,
			PatientID:            in.PatientID,
			AssignmentID:         active.ID,
			DischargeType:        in.DischargeType,
			Summary:              in.Summary,
			BillingStatus:        in.BillingStatus,
			FollowUpRequired:     in.FollowUpRequired,
			FollowUpDate:         in.FollowUpDate,
			FollowUpInstructions: in.FollowUpInstructions,
			Medications:          in.Medications,
			TransportArrangement: in.TransportArrangement,
			PerformedBy:          actor,
			DischargeDate:        now,
		}
		if err := s.repo.Create(ctx, d); err != nil {
			return err
		}

		if err := s.assignments.Terminate(ctx, active.ID, assignment.StatusDischarged, now, actor); err != nil {
			return err
		}

		if err := s.beds.UpdateStatus(ctx, in.BedID, s.postStatus, actor); err != nil {
			return err
		}

		task := &HousekeepingTask{
			BedID:       in.BedID,
			DischargeID: d.ID,
			Status:      TaskOpen,
			RequestedAt: now,
		}
		if err := s.repo.CreateTask(ctx, task); err != nil {
			return err
		}

		if in.FollowUpRequired {
			f := &FollowUpAppointment{
				DischargeID:  d.ID,
				PatientID:    in.PatientID,
				ScheduledFor: *in.FollowUpDate,
				Instructions: *in.FollowUpInstructions,
				CreatedBy:    actor,
			}
			if err := s.repo.CreateFollowUp(ctx, f); err != nil {
				return err
			}
		}

		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, created, bedNum, in.NotifyRecipient)
	return created, nil
}

// notify fans out post-commit notices. Best effort by contract.
func (s *Service) notify(ctx context.Context, d *Discharge, bedNumber, recipient string) {
	if s.notifier == nil {
		return
	}
	if recipient == "" {
		recipient = "ward-desk"
	}
	date := d.DischargeDate.Format(time.RFC3339)

	s.notifier.Notify(ctx, "discharge-summary", recipient, map[string]string{
		"patient_id":     d.PatientID.String(),
		"bed_number":     bedNumber,
		"date":           date,
		"discharge_type": string(d.DischargeType),
	})
	s.notifier.Notify(ctx, "housekeeping-request", "housekeeping", map[string]string{
		"bed_number": bedNumber,
		"date":       date,
	})
	if d.FollowUpRequired && d.FollowUpDate != nil {
		instructions := ""
		if d.FollowUpInstructions != nil {
			instructions = *d.FollowUpInstructions
		}
		s.notifier.Notify(ctx, "followup-reminder", recipient, map[string]string{
			"patient_id":    d.PatientID.String(),
			"followup_date": d.FollowUpDate.Format(time.RFC3339),
			"instructions":  instructions,
		})
	}
}

// CompleteHousekeeping closes a cleaning task and returns the bed to the
// available pool, provided nothing else moved it in the meantime.
func (s *Service) CompleteHousekeeping(ctx context.Context, taskID uuid.UUID, actor string) error {
	return s.tx(ctx, func(ctx context.Context) error {
		task, err := s.repo.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Status != TaskOpen {
			return apperr.Conflict("housekeeping task %s is already %s", task.ID, task.Status)
		}

		if err := s.repo.CompleteTask(ctx, taskID, time.Now().UTC(), actor); err != nil {
			return err
		}

		b, err := s.beds.GetForUpdate(ctx, task.BedID)
		if err != nil {
			return err
		}
		// Only release a bed that is still in its post-discharge state;
		// maintenance or deactivation since then takes precedence.
		if b.Active && (b.Status == bed.StatusCleaning || b.Status == bed.StatusMaintenance) {
			return s.beds.UpdateStatus(ctx, b.ID, bed.StatusAvailable, actor)
		}
		return nil
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Discharge, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Discharge, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Discharge, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListOpenTasks(ctx context.Context, limit, offset int) ([]*HousekeepingTask, int, error) {
	return s.repo.ListOpenTasks(ctx, limit, offset)
}

func (s *Service) ListFollowUpsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*FollowUpAppointment, int, error) {
	return s.repo.ListFollowUpsByPatient(ctx, patientID, limit, offset)
}
