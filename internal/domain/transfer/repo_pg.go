package transfer

import (
	"context"

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

const trCols = `id, from_bed_id, to_bed_id, patient_id, reason, priority,
	scheduled_time, status, reserved_destination, notes, completed_at, completed_by,
	created_by, updated_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, t *Transfer) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bed_transfers (
			id, from_bed_id, to_bed_id, patient_id, reason, priority,
			scheduled_time, status, reserved_destination, notes, created_by, updated_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		t.ID, t.FromBedID, t.ToBedID, t.PatientID, t.Reason, t.Priority,
		t.ScheduledTime, t.Status, t.ReservedDestination, t.Notes, t.CreatedBy, t.UpdatedBy,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Transfer, error) {
	return scanTransfer(r.conn(ctx).QueryRow(ctx,
		`SELECT `+trCols+` FROM bed_transfers WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Transfer, error) {
	return scanTransfer(r.conn(ctx).QueryRow(ctx,
		`SELECT `+trCols+` FROM bed_transfers WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) Update(ctx context.Context, t *Transfer) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bed_transfers SET
			reason=$2, priority=$3, scheduled_time=$4, status=$5,
			reserved_destination=$6, notes=$7, completed_at=$8, completed_by=$9,
			updated_by=$10, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Reason, t.Priority, t.ScheduledTime, t.Status,
		t.ReservedDestination, t.Notes, t.CompletedAt, t.CompletedBy, t.UpdatedBy,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("transfer %s not found", t.ID)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Transfer, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed_transfers`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+trCols+` FROM bed_transfers ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectTransfers(rows, total)
}

func (r *repoPG) ListOpen(ctx context.Context, limit, offset int) ([]*Transfer, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed_transfers WHERE status IN ('pending','scheduled')`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+trCols+` FROM bed_transfers
		WHERE status IN ('pending','scheduled')
		ORDER BY scheduled_time NULLS FIRST, created_at ASC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectTransfers(rows, total)
}

func (r *repoPG) OpenReservationForBed(ctx context.Context, bedID uuid.UUID) (*Transfer, error) {
	t, err := scanTransfer(r.conn(ctx).QueryRow(ctx, `
		SELECT `+trCols+` FROM bed_transfers
		WHERE to_bed_id = $1 AND reserved_destination AND status IN ('pending','scheduled')
		ORDER BY created_at ASC LIMIT 1`, bedID))
	if apperr.IsKind(err, apperr.KindNotFound) {
		return nil, nil
	}
	return t, err
}

func scanTransfer(row pgx.Row) (*Transfer, error) {
	t := &Transfer{}
	err := row.Scan(
		&t.ID, &t.FromBedID, &t.ToBedID, &t.PatientID, &t.Reason, &t.Priority,
		&t.ScheduledTime, &t.Status, &t.ReservedDestination, &t.Notes,
		&t.CompletedAt, &t.CompletedBy,
		&t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("transfer not found")
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func collectTransfers(rows pgx.Rows, total int) ([]*Transfer, int, error) {
	var out []*Transfer
	for rows.Next() {
		t := &Transfer{}
		if err := rows.Scan(
			&t.ID, &t.FromBedID, &t.ToBedID, &t.PatientID, &t.Reason, &t.Priority,
			&t.ScheduledTime, &t.Status, &t.ReservedDestination, &t.Notes,
			&t.CompletedAt, &t.CompletedBy,
			&t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}
