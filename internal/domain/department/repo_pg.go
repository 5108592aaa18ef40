package department

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

const depCols = `id, code, name, floor, active, created_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO departments (id, code, name, floor, active, created_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		d.ID, d.Code, d.Name, d.Floor, d.Active, d.CreatedBy,
	)
	if db.IsUniqueViolation(err, "departments_code_key") {
		return apperr.Validation("department code %q already exists", d.Code)
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	d := &Department{}
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+depCols+` FROM departments WHERE id = $1`, id).Scan(
		&d.ID, &d.Code, &d.Name, &d.Floor, &d.Active, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("department not found")
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1 AND active)`, id).Scan(&exists)
	return exists, err
}

func (r *repoPG) Update(ctx context.Context, d *Department) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE departments SET code=$2, name=$3, floor=$4, active=$5, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Code, d.Name, d.Floor, d.Active,
	)
	if db.IsUniqueViolation(err, "departments_code_key") {
		return apperr.Validation("department code %q already exists", d.Code)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("department %s not found", d.ID)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Department, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM departments`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+depCols+` FROM departments ORDER BY name ASC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Department
	for rows.Next() {
		d := &Department{}
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.Floor, &d.Active, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

const statsQuery = `
	SELECT d.id, d.name,
		COUNT(b.id) FILTER (WHERE b.active)                            AS total,
		COUNT(b.id) FILTER (WHERE b.active AND b.status='available')   AS available,
		COUNT(b.id) FILTER (WHERE b.active AND b.status='occupied')    AS occupied,
		COUNT(b.id) FILTER (WHERE b.active AND b.status='maintenance') AS maintenance,
		COUNT(b.id) FILTER (WHERE b.active AND b.status='cleaning')    AS cleaning,
		COUNT(b.id) FILTER (WHERE b.active AND b.status='reserved')    AS reserved,
		COUNT(b.id) FILTER (WHERE NOT b.active OR b.status='blocked')  AS blocked
	FROM departments d
	LEFT JOIN beds b ON b.department_id = d.id`

func (r *repoPG) Stats(ctx context.Context, id uuid.UUID) (*Stats, error) {
	s := &Stats{}
	err := r.conn(ctx).QueryRow(ctx,
		statsQuery+` WHERE d.id = $1 GROUP BY d.id, d.name`, id).Scan(
		&s.DepartmentID, &s.Name, &s.TotalBeds, &s.Available, &s.Occupied,
		&s.Maintenance, &s.Cleaning, &s.Reserved, &s.Blocked,
	)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("department not found")
	}
	if err != nil {
		return nil, err
	}
	fillRate(s)
	return s, nil
}

func (r *repoPG) StatsAll(ctx context.Context) ([]*Stats, error) {
	rows, err := r.conn(ctx).Query(ctx,
		statsQuery+` GROUP BY d.id, d.name ORDER BY d.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Stats
	for rows.Next() {
		s := &Stats{}
		if err := rows.Scan(
			&s.DepartmentID, &s.Name, &s.TotalBeds, &s.Available, &s.Occupied,
			&s.Maintenance, &s.Cleaning, &s.Reserved, &s.Blocked,
		); err != nil {
			return nil, err
		}
		fillRate(s)
		out = append(out, s)
	}
	return out, rows.Err()
}

func fillRate(s *Stats) {
	if s.TotalBeds > 0 {
		s.OccupancyRate = float64(s.Occupied) / float64(s.TotalBeds)
	}
}
