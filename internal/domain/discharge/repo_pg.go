package discharge

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

const disCols = `id, bed_id, patient_id, assignment_id, discharge_type, summary,
	billing_status, follow_up_required, follow_up_date, follow_up_instructions,
	medications, transport_arrangement, performed_by, discharge_date, created_at`

func (r *repoPG) Create(ctx context.Context, d *Discharge) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_discharges (
			id, bed_id, patient_id, assignment_id, discharge_type, summary,
			billing_status, follow_up_required, follow_up_date, follow_up_instructions,
			medications, transport_arrangement, performed_by, discharge_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		d.ID, d.BedID, d.PatientID, d.AssignmentID, d.DischargeType, d.Summary,
		d.BillingStatus, d.FollowUpRequired, d.FollowUpDate, d.FollowUpInstructions,
		d.Medications, d.TransportArrangement, d.PerformedBy, d.DischargeDate,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Discharge, error) {
	d := &Discharge{}
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+disCols+` FROM patient_discharges WHERE id = $1`, id).Scan(
		&d.ID, &d.BedID, &d.PatientID, &d.AssignmentID, &d.DischargeType, &d.Summary,
		&d.BillingStatus, &d.FollowUpRequired, &d.FollowUpDate, &d.FollowUpInstructions,
		&d.Medications, &d.TransportArrangement, &d.PerformedBy, &d.DischargeDate, &d.CreatedAt,
	)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("discharge not found")
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Discharge, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_discharges WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+disCols+` FROM patient_discharges WHERE patient_id = $1 ORDER BY discharge_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectDischarges(rows, total)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Discharge, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_discharges`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+disCols+` FROM patient_discharges ORDER BY discharge_date DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectDischarges(rows, total)
}

func collectDischarges(rows pgx.Rows, total int) ([]*Discharge, int, error) {
	var out []*Discharge
	for rows.Next() {
		d := &Discharge{}
		if err := rows.Scan(
			&d.ID, &d.BedID, &d.PatientID, &d.AssignmentID, &d.DischargeType, &d.Summary,
			&d.BillingStatus, &d.FollowUpRequired, &d.FollowUpDate, &d.FollowUpInstructions,
			&d.Medications, &d.TransportArrangement, &d.PerformedBy, &d.DischargeDate, &d.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

const taskCols = `id, bed_id, discharge_id, status, requested_at, completed_at, completed_by`

func (r *repoPG) CreateTask(ctx context.Context, t *HousekeepingTask) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO housekeeping_tasks (id, bed_id, discharge_id, status, requested_at)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.BedID, t.DischargeID, t.Status, t.RequestedAt,
	)
	return err
}

func (r *repoPG) GetTaskForUpdate(ctx context.Context, id uuid.UUID) (*HousekeepingTask, error) {
	t := &HousekeepingTask{}
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+taskCols+` FROM housekeeping_tasks WHERE id = $1 FOR UPDATE`, id).Scan(
		&t.ID, &t.BedID, &t.DischargeID, &t.Status, &t.RequestedAt, &t.CompletedAt, &t.CompletedBy,
	)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("housekeeping task not found")
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repoPG) CompleteTask(ctx context.Context, id uuid.UUID, when time.Time, actor string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE housekeeping_tasks SET status=$2, completed_at=$3, completed_by=$4
		WHERE id = $1 AND status = $5`,
		id, TaskDone, when, actor, TaskOpen)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("housekeeping task %s is not open", id)
	}
	return nil
}

func (r *repoPG) ListOpenTasks(ctx context.Context, limit, offset int) ([]*HousekeepingTask, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM housekeeping_tasks WHERE status = $1`, TaskOpen).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+taskCols+` FROM housekeeping_tasks WHERE status = $1 ORDER BY requested_at ASC LIMIT $2 OFFSET $3`,
		TaskOpen, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*HousekeepingTask
	for rows.Next() {
		t := &HousekeepingTask{}
		if err := rows.Scan(&t.ID, &t.BedID, &t.DischargeID, &t.Status, &t.RequestedAt, &t.CompletedAt, &t.CompletedBy); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *repoPG) CreateFollowUp(ctx context.Context, f *FollowUpAppointment) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO followup_appointments (id, discharge_id, patient_id, scheduled_for, instructions, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		f.ID, f.DischargeID, f.PatientID, f.ScheduledFor, f.Instructions, f.CreatedBy,
	)
	return err
}

func (r *repoPG) ListFollowUpsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*FollowUpAppointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM followup_appointments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, discharge_id, patient_id, scheduled_for, instructions, created_by, created_at
		FROM followup_appointments WHERE patient_id = $1
		ORDER BY scheduled_for ASC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*FollowUpAppointment
	for rows.Next() {
		f := &FollowUpAppointment{}
		if err := rows.Scan(&f.ID, &f.DischargeID, &f.PatientID, &f.ScheduledFor, &f.Instructions, &f.CreatedBy, &f.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}
