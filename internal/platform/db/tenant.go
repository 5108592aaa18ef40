package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	TenantKey contextKey = "tenant"
	DBConnKey contextKey = "db_conn"
)

// tenantIDPattern is the first line of defense against hostile tenant
// tokens. Passing it is necessary but not sufficient: a token must also
// resolve through the TenantDirectory before its schema is ever used.
var tenantIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Tenant is the internal handle for a resolved tenant. Schema is the only
// value this package ever interpolates into a namespace-selection
// statement, and it is always directory-issued, never caller-supplied.
type Tenant struct {
	ID          string
	Schema      string
	DisplayName string
	Active      bool
}

// TenantDirectory is the allowlist of known tenants, loaded from
// shared.tenants. External tenant tokens are translated into Tenant
// handles here; unknown or inactive tokens are rejected before any
// query construction.
type TenantDirectory struct {
	pool *pgxpool.Pool

	mu     sync.RWMutex
	byID   map[string]*Tenant
	loaded time.Time
	maxAge time.Duration
}

func NewTenantDirectory(pool *pgxpool.Pool) *TenantDirectory {
	return &TenantDirectory{
		pool:   pool,
		byID:   make(map[string]*Tenant),
		maxAge: time.Minute,
	}
}

// Refresh reloads the allowlist from shared.tenants.
func (d *TenantDirectory) Refresh(ctx context.Context) error {
	rows, err := d.pool.Query(ctx,
		`SELECT id, schema_name, display_name, active FROM shared.tenants`)
	if err != nil {
		return fmt.Errorf("load tenant directory: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*Tenant)
	for rows.Next() {
		t := &Tenant{}
		if err := rows.Scan(&t.ID, &t.Schema, &t.DisplayName, &t.Active); err != nil {
			return fmt.Errorf("scan tenant row: %w", err)
		}
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate tenant rows: %w", err)
	}

	d.mu.Lock()
	d.byID = byID
	d.loaded = time.Now()
	d.mu.Unlock()
	return nil
}

// Resolve translates an external tenant token into a Tenant handle.
// Unknown, inactive, or malformed tokens fail; the cached allowlist is
// refreshed when stale so newly provisioned tenants become visible
// without a restart.
func (d *TenantDirectory) Resolve(ctx context.Context, token string) (*Tenant, error) {
	if !tenantIDPattern.MatchString(token) {
		return nil, fmt.Errorf("invalid tenant identifier %q", token)
	}

	d.mu.RLock()
	t, ok := d.byID[token]
	stale := time.Since(d.loaded) > d.maxAge
	d.mu.RUnlock()

	if !ok && stale {
		if err := d.Refresh(ctx); err != nil {
			return nil, err
		}
		d.mu.RLock()
		t, ok = d.byID[token]
		d.mu.RUnlock()
	}
	if !ok {
		return nil, fmt.Errorf("unknown tenant %q", token)
	}
	if !t.Active {
		return nil, fmt.Errorf("tenant %q is deactivated", token)
	}
	return t, nil
}

// Known reports whether token is in the cached allowlist, without forcing
// a refresh. Used by the tenant CLI.
func (d *TenantDirectory) Known(token string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byID[token]
	return ok
}

// put registers a tenant handle directly; used when provisioning a schema
// so the new tenant is resolvable immediately.
func (d *TenantDirectory) put(t *Tenant) {
	d.mu.Lock()
	d.byID[t.ID] = t
	d.mu.Unlock()
}

// TenantMiddleware resolves the caller's tenant token, acquires a pooled
// connection, binds it to the tenant's schema, and stores both on the
// request context. The binding never outlives the request: the connection
// is released when the handler returns, and every transaction started on
// it re-asserts the binding itself (see WithTx).
func TenantMiddleware(pool *pgxpool.Pool, dir *TenantDirectory, defaultTenant string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractTenantToken(c, defaultTenant)

			ctx := c.Request().Context()
			tenant, err := dir.Resolve(ctx, token)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unknown or invalid tenant")
			}

			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			_, err = conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, shared", tenant.Schema))
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "tenant binding failed")
			}

			ctx = context.WithValue(ctx, TenantKey, tenant)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("tenant_id", tenant.ID)

			return next(c)
		}
	}
}

func extractTenantToken(c echo.Context, defaultTenant string) string {
	if tid := c.Request().Header.Get("X-Tenant-ID"); tid != "" {
		return tid
	}
	if tid := c.QueryParam("tenant_id"); tid != "" {
		return tid
	}
	return defaultTenant
}

// ConnFromContext retrieves the tenant-bound database connection.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// TenantFromContext retrieves the resolved tenant handle.
func TenantFromContext(ctx context.Context) *Tenant {
	t, _ := ctx.Value(TenantKey).(*Tenant)
	return t
}

// CreateTenantSchema provisions a tenant: registers it in shared.tenants,
// creates its schema, and runs all migrations against it. The directory,
// when provided, learns the new tenant immediately.
func CreateTenantSchema(ctx context.Context, pool *pgxpool.Pool, dir *TenantDirectory, tenantID, displayName, migrationsDir string) error {
	if !tenantIDPattern.MatchString(tenantID) {
		return fmt.Errorf("invalid tenant identifier: %s", tenantID)
	}

	schema := fmt.Sprintf("tenant_%s", tenantID)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
		INSERT INTO shared.tenants (id, schema_name, display_name, active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, active = TRUE`,
		tenantID, schema, displayName,
	); err != nil {
		return fmt.Errorf("register tenant %s: %w", tenantID, err)
	}

	if _, err := conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrationsDir != "" {
		migrator := NewMigrator(pool, migrationsDir)
		if _, err := migrator.Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}

	if dir != nil {
		dir.put(&Tenant{ID: tenantID, Schema: schema, DisplayName: displayName, Active: true})
	}

	return nil
}

// EnsureSharedSchema creates the shared schema and the tenant allowlist
// table. Called once at startup before the directory first loads.
func EnsureSharedSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS shared;
		CREATE TABLE IF NOT EXISTS shared.tenants (
			id           VARCHAR(63) PRIMARY KEY,
			schema_name  VARCHAR(63) NOT NULL UNIQUE,
			display_name VARCHAR(255) NOT NULL DEFAULT '',
			active       BOOLEAN NOT NULL DEFAULT TRUE,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("ensure shared schema: %w", err)
	}
	return nil
}
