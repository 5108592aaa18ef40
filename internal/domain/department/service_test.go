package department

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/bms/bms/internal/platform/apperr"
)

type fakeRepo struct {
	rows map[uuid.UUID]*Department
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[uuid.UUID]*Department)}
}

func (r *fakeRepo) Create(_ context.Context, d *Department) error {
	for _, existing := range r.rows {
		if existing.Code == d.Code {
			return apperr.Validation("department code %q already exists", d.Code)
		}
	}
	d.ID = uuid.New()
	cp := *d
	r.rows[d.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Department, error) {
	d, ok := r.rows[id]
	if !ok {
		return nil, apperr.NotFound("department not found")
	}
	cp := *d
	return &cp, nil
}

func (r *fakeRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	d, ok := r.rows[id]
	return ok && d.Active, nil
}

func (r *fakeRepo) Update(_ context.Context, d *Department) error {
	if _, ok := r.rows[d.ID]; !ok {
		return apperr.NotFound("department %s not found", d.ID)
	}
	cp := *d
	r.rows[d.ID] = &cp
	return nil
}

func (r *fakeRepo) List(_ context.Context, _, _ int) ([]*Department, int, error) {
	return nil, 0, nil
}

func (r *fakeRepo) Stats(_ context.Context, _ uuid.UUID) (*Stats, error) {
	return nil, apperr.NotFound("department not found")
}

func (r *fakeRepo) StatsAll(_ context.Context) ([]*Stats, error) {
	return nil, nil
}

func TestCreate(t *testing.T) {
	svc := NewService(newFakeRepo())

	d, err := svc.Create(context.Background(), CreateInput{Code: "icu", Name: "Intensive Care"}, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Code != "ICU" {
		t.Errorf("expected code uppercased, got %q", d.Code)
	}
	if !d.Active {
		t.Error("expected new department to be active")
	}
	if d.CreatedBy != "admin-1" {
		t.Errorf("expected created_by 'admin-1', got %q", d.CreatedBy)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Name: "No Code"}, "a"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for missing code, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Code: "ER"}, "a"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error for missing name, got %v", err)
	}
}

func TestCreate_DuplicateCode(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Code: "ER", Name: "Emergency"}, "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Create(ctx, CreateInput{Code: "er", Name: "Emergency Two"}, "a")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for duplicate code, got %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	d, err := svc.Create(ctx, CreateInput{Code: "ER", Name: "Emergency"}, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Deactivate(ctx, d.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.rows[d.ID].Active {
		t.Error("expected department to be inactive")
	}

	// Inactive departments fail the reference check used by bed creation.
	ok, err := svc.Exists(ctx, d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected Exists to report false for inactive department")
	}
}
