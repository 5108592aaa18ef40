package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bms/bms/internal/domain/bed"
	"github.com/bms/bms/internal/platform/apperr"
)

// fakeBeds is a map-backed bed.Repository.
type fakeBeds struct {
	beds map[uuid.UUID]*bed.Bed
}

func newFakeBeds() *fakeBeds {
	return &fakeBeds{beds: make(map[uuid.UUID]*bed.Bed)}
}

func (r *fakeBeds) add(status bed.Status, active bool) *bed.Bed {
	b := &bed.Bed{ID: uuid.New(), Number: "B-" + uuid.NewString()[:8], Status: status, Active: active}
	r.beds[b.ID] = b
	return b
}

func (r *fakeBeds) Create(_ context.Context, b *bed.Bed) error {
	b.ID = uuid.New()
	r.beds[b.ID] = b
	return nil
}

func (r *fakeBeds) GetByID(_ context.Context, id uuid.UUID) (*bed.Bed, error) {
	b, ok := r.beds[id]
	if !ok {
		return nil, apperr.NotFound("bed not found")
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBeds) GetByNumber(_ context.Context, _ string) (*bed.Bed, error) {
	return nil, apperr.NotFound("bed not found")
}

func (r *fakeBeds) GetForUpdate(ctx context.Context, id uuid.UUID) (*bed.Bed, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeBeds) Update(_ context.Context, b *bed.Bed) error {
	cp := *b
	r.beds[b.ID] = &cp
	return nil
}

func (r *fakeBeds) UpdateStatus(_ context.Context, id uuid.UUID, status bed.Status, actor string) error {
	b, ok := r.beds[id]
	if !ok {
		return apperr.NotFound("bed %s not found", id)
	}
	b.Status = status
	b.UpdatedBy = actor
	return nil
}

func (r *fakeBeds) List(_ context.Context, _ bed.ListFilter, _, _ int) ([]*bed.Bed, int, error) {
	return nil, 0, nil
}

// fakeRepo is a map-backed assignment Repository.
type fakeRepo struct {
	rows map[uuid.UUID]*Assignment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uuid.UUID]*Assignment)}
}

func (r *fakeRepo) Create(_ context.Context, a *Assignment) error {
	a.ID = uuid.New()
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Assignment, error) {
	a, ok := r.rows[id]
	if !ok {
		return nil, apperr.NotFound("assignment not found")
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) GetActiveByBed(_ context.Context, bedID uuid.UUID) (*Assignment, error) {
	for _, a := range r.rows {
		if a.BedID == bedID && a.Status == StatusActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("no active assignment for bed")
}

func (r *fakeRepo) GetActiveByPatient(_ context.Context, patientID uuid.UUID) (*Assignment, error) {
	for _, a := range r.rows {
		if a.PatientID == patientID && a.Status == StatusActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("no active assignment for patient")
}

func (r *fakeRepo) BedHasActive(_ context.Context, bedID uuid.UUID) (bool, error) {
	for _, a := range r.rows {
		if a.BedID == bedID && a.Status == StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) PatientHasActive(_ context.Context, patientID uuid.UUID) (bool, error) {
	for _, a := range r.rows {
		if a.PatientID == patientID && a.Status == StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) Terminate(_ context.Context, id uuid.UUID, final Status, when time.Time, actor string) error {
	a, ok := r.rows[id]
	if !ok {
		return apperr.NotFound("assignment not found")
	}
	if a.Status != StatusActive {
		return apperr.Conflict("assignment %s is not active", id)
	}
	a.Status = final
	a.DischargeDate = &when
	a.UpdatedBy = actor
	return nil
}

func (r *fakeRepo) ListByBed(_ context.Context, _ uuid.UUID, _, _ int) ([]*Assignment, int, error) {
	return nil, 0, nil
}

func (r *fakeRepo) ListByPatient(_ context.Context, _ uuid.UUID, _, _ int) ([]*Assignment, int, error) {
	return nil, 0, nil
}

func (r *fakeRepo) List(_ context.Context, _, _ int) ([]*Assignment, int, error) {
	return nil, 0, nil
}

func passTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestAdmit(t *testing.T) {
	beds := newFakeBeds()
	repo := newFakeRepo()
	svc := NewService(repo, beds, passTx)
	b := beds.add(bed.StatusAvailable, true)
	patient := uuid.New()

	a, err := svc.Admit(context.Background(), AdmitInput{BedID: b.ID, PatientID: patient}, "clerk-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusActive {
		t.Errorf("expected active assignment, got %s", a.Status)
	}
	if beds.beds[b.ID].Status != bed.StatusOccupied {
		t.Errorf("expected bed to flip to occupied, got %s", beds.beds[b.ID].Status)
	}
	if a.AdmissionDate.IsZero() {
		t.Error("expected admission date to be stamped")
	}
}

func TestAdmit_BedNotAvailable(t *testing.T) {
	beds := newFakeBeds()
	repo := newFakeRepo()
	svc := NewService(repo, beds, passTx)

	for _, status := range []bed.Status{bed.StatusOccupied, bed.StatusMaintenance, bed.StatusCleaning, bed.StatusReserved, bed.StatusBlocked} {
		b := beds.add(status, true)
		_, err := svc.Admit(context.Background(), AdmitInput{BedID: b.ID, PatientID: uuid.New()}, "clerk-1")
		if !apperr.IsKind(err, apperr.KindConflict) {
			t.Errorf("status %s: expected conflict, got %v", status, err)
		}
	}
}

func TestAdmit_DeactivatedBed(t *testing.T) {
	beds := newFakeBeds()
	repo := newFakeRepo()
	svc := NewService(repo, beds, passTx)
	b := beds.add(bed.StatusAvailable, false)

	_, err := svc.Admit(context.Background(), AdmitInput{BedID: b.ID, PatientID: uuid.New()}, "clerk-1")
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAdmit_PatientAlreadyAssigned(t *testing.T) {
	beds := newFakeBeds()
	repo := newFakeRepo()
	svc := NewService(repo, beds, passTx)
	patient := uuid.New()

	first := beds.add(bed.StatusAvailable, true)
	if _, err := svc.Admit(context.Background(), AdmitInput{BedID: first.ID, PatientID: patient}, "clerk-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := beds.add(bed.StatusAvailable, true)
	_, err := svc.Admit(context.Background(), AdmitInput{BedID: second.ID, PatientID: patient}, "clerk-1")
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for double admission, got %v", err)
	}
	if beds.beds[second.ID].Status != bed.StatusAvailable {
		t.Errorf("expected second bed to stay available, got %s", beds.beds[second.ID].Status)
	}
}

func TestAdmit_MissingFields(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeBeds(), passTx)
	ctx := context.Background()

	if _, err := svc.Admit(ctx, AdmitInput{PatientID: uuid.New()}, "c"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for missing bed, got %v", err)
	}
	if _, err := svc.Admit(ctx, AdmitInput{BedID: uuid.New()}, "c"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for missing patient, got %v", err)
	}
}

func TestAdmit_ExplicitAdmissionDate(t *testing.T) {
	beds := newFakeBeds()
	repo := newFakeRepo()
	svc := NewService(repo, beds, passTx)
	b := beds.add(bed.StatusAvailable, true)

	when := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	a, err := svc.Admit(context.Background(), AdmitInput{BedID: b.ID, PatientID: uuid.New(), AdmissionDate: &when}, "clerk-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.AdmissionDate.Equal(when) {
		t.Errorf("expected admission date %v, got %v", when, a.AdmissionDate)
	}
}

func TestTerminate_RequiresTerminalStatus(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeBeds(), passTx)

	err := svc.Terminate(context.Background(), uuid.New(), StatusActive, "clerk-1")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTerminate_ClosedAssignmentConflicts(t *testing.T) {
	beds := newFakeBeds()
	repo := newFakeRepo()
	svc := NewService(repo, beds, passTx)
	b := beds.add(bed.StatusAvailable, true)

	a, err := svc.Admit(context.Background(), AdmitInput{BedID: b.ID, PatientID: uuid.New()}, "clerk-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Terminate(context.Background(), a.ID, StatusDischarged, "clerk-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = svc.Terminate(context.Background(), a.ID, StatusDischarged, "clerk-1")
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on second termination, got %v", err)
	}
}

func TestTerminal(t *testing.T) {
	if Terminal(StatusActive) {
		t.Error("active must not be terminal")
	}
	if !Terminal(StatusDischarged) || !Terminal(StatusTransferred) {
		t.Error("discharged and transferred must be terminal")
	}
}
