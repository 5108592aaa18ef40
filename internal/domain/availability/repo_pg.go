package availability

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bms/bms/internal/domain/bed"
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

// availablePredicate is the full usability predicate: active, marked
// available, no active assignment, and no live reservation held by an
// open scheduled transfer.
const availablePredicate = `
	b.active
	AND b.status = 'available'
	AND NOT EXISTS (
		SELECT 1 FROM bed_assignments a
		WHERE a.bed_id = b.id AND a.status = 'active'
	)
	AND NOT EXISTS (
		SELECT 1 FROM bed_transfers t
		WHERE t.to_bed_id = b.id
		  AND t.reserved_destination
		  AND t.status IN ('pending','scheduled')
	)`

func (r *repoPG) ListAvailable(ctx context.Context, filter Filter, limit, offset int) ([]*bed.Bed, int, error) {
	where := availablePredicate
	var args []interface{}

	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		where += fmt.Sprintf(" AND b.department_id = $%d", len(args))
	}
	if filter.BedType != nil {
		args = append(args, *filter.BedType)
		where += fmt.Sprintf(" AND b.bed_type = $%d", len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM beds b WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(`
		SELECT b.id, b.number, b.department_id, b.bed_type, b.floor, b.wing, b.room,
			b.features, b.status, b.active, b.notes,
			b.created_by, b.updated_by, b.created_at, b.updated_at
		FROM beds b
		WHERE %s
		ORDER BY b.number ASC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var beds []*bed.Bed
	for rows.Next() {
		b := &bed.Bed{}
		if err := rows.Scan(
			&b.ID, &b.Number, &b.DepartmentID, &b.BedType, &b.Floor, &b.Wing, &b.Room,
			&b.Features, &b.Status, &b.Active, &b.Notes,
			&b.CreatedBy, &b.UpdatedBy, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		beds = append(beds, b)
	}
	return beds, total, rows.Err()
}
