package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bms/bms/internal/domain/bed"
	"github.com/bms/bms/internal/domain/transfer"
	"github.com/bms/bms/internal/platform/apperr"
)

// Service answers availability questions for dashboards and intake
// workflows. It is read-only: the mutating protocols re-run their own
// checks inside their transactions and never trust these answers.
type Service struct {
	repo        Repository
	beds        bed.Repository
	assignments bed.AssignmentChecker
	transfers   transfer.Repository
}

func NewService(repo Repository, beds bed.Repository, assignments bed.AssignmentChecker, transfers transfer.Repository) *Service {
	return &Service{repo: repo, beds: beds, assignments: assignments, transfers: transfers}
}

// IsAvailable evaluates the full usability predicate for one bed and
// explains every negative answer.
func (s *Service) IsAvailable(ctx context.Context, bedID uuid.UUID) (*Result, error) {
	b, err := s.beds.GetByID(ctx, bedID)
	if err != nil {
		return nil, err
	}

	if !b.Active {
		return &Result{Reason: "bed is deactivated"}, nil
	}
	if b.Status != bed.StatusAvailable {
		return &Result{Reason: fmt.Sprintf("bed status is %s", b.Status)}, nil
	}

	hasActive, err := s.assignments.BedHasActive(ctx, bedID)
	if err != nil {
		return nil, err
	}
	if hasActive {
		return &Result{Reason: "bed has an active assignment"}, nil
	}

	res, err := s.transfers.OpenReservationForBed(ctx, bedID)
	if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, err
	}
	if res != nil {
		until := "its transfer completes"
		if res.ScheduledTime != nil {
			until = res.ScheduledTime.Format(time.RFC3339)
		}
		return &Result{Reason: fmt.Sprintf("bed is reserved until %s", until)}, nil
	}

	return &Result{Available: true}, nil
}

// ListAvailable returns usable beds matching the filter, ordered by bed
// number for deterministic pagination.
func (s *Service) ListAvailable(ctx context.Context, filter Filter, limit, offset int) ([]*bed.Bed, int, error) {
	return s.repo.ListAvailable(ctx, filter, limit, offset)
}
