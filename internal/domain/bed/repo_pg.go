package bed

import (
	"context"
	"fmt"
	"strings"

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

const bedCols = `id, number, department_id, bed_type, floor, wing, room, features,
	status, active, notes, created_by, updated_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO beds (
			id, number, department_id, bed_type, floor, wing, room, features,
			status, active, notes, created_by, updated_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		b.ID, b.Number, b.DepartmentID, b.BedType, b.Floor, b.Wing, b.Room, b.Features,
		b.Status, b.Active, b.Notes, b.CreatedBy, b.UpdatedBy,
	)
	if db.IsUniqueViolation(err, "beds_number_key") {
		return apperr.Validation("bed number %q already exists", b.Number)
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return scanBed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM beds WHERE id = $1`, id))
}

func (r *repoPG) GetByNumber(ctx context.Context, number string) (*Bed, error) {
	return scanBed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM beds WHERE number = $1`, number))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return scanBed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM beds WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) Update(ctx context.Context, b *Bed) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET
			number=$2, department_id=$3, bed_type=$4, floor=$5, wing=$6, room=$7,
			features=$8, status=$9, active=$10, notes=$11, updated_by=$12, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.Number, b.DepartmentID, b.BedType, b.Floor, b.Wing, b.Room,
		b.Features, b.Status, b.Active, b.Notes, b.UpdatedBy,
	)
	if db.IsUniqueViolation(err, "beds_number_key") {
		return apperr.Validation("bed number %q already exists", b.Number)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("bed %s not found", b.ID)
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, actor string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE beds SET status=$2, updated_by=$3, updated_at=NOW() WHERE id = $1`,
		id, status, actor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("bed %s not found", id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Bed, int, error) {
	where, args := buildFilter(filter)

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM beds`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bedCols+` FROM beds`+where+
			fmt.Sprintf(` ORDER BY number ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		b, err := scanBedRow(rows)
		if err != nil {
			return nil, 0, err
		}
		beds = append(beds, b)
	}
	return beds, total, rows.Err()
}

func buildFilter(filter ListFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.DepartmentID != nil {
		add("department_id = $%d", *filter.DepartmentID)
	}
	if filter.BedType != nil {
		add("bed_type = $%d", *filter.BedType)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.ActiveOnly {
		clauses = append(clauses, "active = TRUE")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanBed(row pgx.Row) (*Bed, error) {
	b := &Bed{}
	err := row.Scan(
		&b.ID, &b.Number, &b.DepartmentID, &b.BedType, &b.Floor, &b.Wing, &b.Room,
		&b.Features, &b.Status, &b.Active, &b.Notes,
		&b.CreatedBy, &b.UpdatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("bed not found")
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanBedRow(rows pgx.Rows) (*Bed, error) {
	b := &Bed{}
	err := rows.Scan(
		&b.ID, &b.Number, &b.DepartmentID, &b.BedType, &b.Floor, &b.Wing, &b.Room,
		&b.Features, &b.Status, &b.Active, &b.Notes,
		&b.CreatedBy, &b.UpdatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}
