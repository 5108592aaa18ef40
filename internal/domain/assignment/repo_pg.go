package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bms/bms/internal/platform/apperr"
	"github.com/bms/bms/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const asgCols = `id, bed_id, patient_id, admission_date, discharge_date, status,
	reason, notes, created_by, updated_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Assignment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bed_assignments (
			id, bed_id, patient_id, admission_date, status, reason, notes,
			created_by, updated_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.BedID, a.PatientID, a.AdmissionDate, a.Status, a.Reason, a.Notes,
		a.CreatedBy, a.UpdatedBy,
	)
	// The partial unique indexes are the storage-level backstop against
	// double-booking; the in-transaction checks normally fire first.
	if db.IsUniqueViolation(err, "bed_assignments_one_active_per_bed") {
		return apperr.Conflict("bed already has an active assignment")
	}
	if db.IsUniqueViolation(err, "bed_assignments_one_active_per_patient") {
		return apperr.Conflict("patient already has an active assignment")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	return scanAsg(r.conn(ctx).QueryRow(ctx,
		`SELECT `+asgCols+` FROM bed_assignments WHERE id = $1`, id))
}

func (r *repoPG) GetActiveByBed(ctx context.Context, bedID uuid.UUID) (*Assignment, error) {
	return scanAsg(r.conn(ctx).QueryRow(ctx,
		`SELECT `+asgCols+` FROM bed_assignments WHERE bed_id = $1 AND status = 'active'`, bedID))
}

func (r *repoPG) GetActiveByPatient(ctx context.Context, patientID uuid.UUID) (*Assignment, error) {
	return scanAsg(r.conn(ctx).QueryRow(ctx,
		`SELECT `+asgCols+` FROM bed_assignments WHERE patient_id = $1 AND status = 'active'`, patientID))
}

func (r *repoPG) BedHasActive(ctx context.Context, bedID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bed_assignments WHERE bed_id = $1 AND status = 'active')`,
		bedID).Scan(&exists)
	return exists, err
}

func (r *repoPG) PatientHasActive(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bed_assignments WHERE patient_id = $1 AND status = 'active')`,
		patientID).Scan(&exists)
	return exists, err
}

func (r *repoPG) Terminate(ctx context.Context, id uuid.UUID, final Status, when time.Time, actor string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bed_assignments
		SET status=$2, discharge_date=$3, updated_by=$4, updated_at=NOW()
		WHERE id = $1 AND status = 'active'`,
		id, final, when, actor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("assignment %s is not active", id)
	}
	return nil
}

func (r *repoPG) ListByBed(ctx context.Context, bedID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed_assignments WHERE bed_id = $1`, bedID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+asgCols+` FROM bed_assignments WHERE bed_id = $1 ORDER BY admission_date DESC LIMIT $2 OFFSET $3`,
		bedID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAsgs(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Assignment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed_assignments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+asgCols+` FROM bed_assignments WHERE patient_id = $1 ORDER BY admission_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAsgs(rows, total)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Assignment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed_assignments`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+asgCols+` FROM bed_assignments ORDER BY admission_date DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAsgs(rows, total)
}

func scanAsg(row pgx.Row) (*Assignment, error) {
	a := &Assignment{}
	err := row.Scan(
		&a.ID, &a.BedID, &a.PatientID, &a.AdmissionDate, &a.DischargeDate, &a.Status,
		&a.Reason, &a.Notes, &a.CreatedBy, &a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("assignment not found")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func collectAsgs(rows pgx.Rows, total int) ([]*Assignment, int, error) {
	var out []*Assignment
	for rows.Next() {
		a := &Assignment{}
		if err := rows.Scan(
			&a.ID, &a.BedID, &a.PatientID, &a.AdmissionDate, &a.DischargeDate, &a.Status,
			&a.Reason, &a.Notes, &a.CreatedBy, &a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
