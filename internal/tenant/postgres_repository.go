package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/userix/userix/internal/database"
)

const tenantColumns = `id, name, subdomain, database_name, is_active, settings, created_at, updated_at`

// PostgresRepository implements Repository on Postgres.
type PostgresRepository struct {
	db database.DBTX
}

// NewRepository creates a new Repository backed by db.
func NewRepository(db database.DBTX) Repository {
	return &PostgresRepository{db: db}
}

// Create inserts a new tenant record. DatabaseName is derived from the
// subdomain and zero-valued settings get the default limits.
func (r *PostgresRepository) Create(ctx context.Context, t *Tenant) error {
	t.DatabaseName = DatabaseNameFor(t.Subdomain)
	if t.Settings.MaxStudents == 0 {
		t.Settings.MaxStudents = DefaultMaxStudents
	}
	if t.Settings.MaxTeachers == 0 {
		t.Settings.MaxTeachers = DefaultMaxTeachers
	}
	if t.Settings.Features == nil {
		t.Settings.Features = []string{}
	}

	query := `
		INSERT INTO tenants (name, subdomain, database_name, settings)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, t.Name, t.Subdomain, t.DatabaseName, t.Settings).
		Scan(&t.ID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSubdomain
		}
		return fmt.Errorf("inserting tenant: %w", err)
	}

	return nil
}

// GetByID retrieves a single tenant by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetBySubdomain retrieves a single tenant by its subdomain.
func (r *PostgresRepository) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE subdomain = $1`
	return r.scanOne(ctx, query, subdomain)
}

// List retrieves all tenants, newest first, with their admin, student,
// teacher and class counts.
func (r *PostgresRepository) List(ctx context.Context) ([]Summary, error) {
	query := `
		SELECT t.id, t.name, t.subdomain, t.database_name, t.is_active, t.settings,
		       t.created_at, t.updated_at,
		       (SELECT COUNT(*) FROM admins a WHERE a.tenant_id = t.id),
		       (SELECT COUNT(*) FROM students s WHERE s.tenant_id = t.id),
		       (SELECT COUNT(*) FROM teachers te WHERE te.tenant_id = t.id),
		       (SELECT COUNT(*) FROM classes c WHERE c.tenant_id = t.id)
		FROM tenants t
		ORDER BY t.created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Summary
	for rows.Next() {
		var s Summary
		err := rows.Scan(
			&s.ID, &s.Name, &s.Subdomain, &s.DatabaseName, &s.IsActive, &s.Settings,
			&s.CreatedAt, &s.UpdatedAt,
			&s.AdminCount, &s.StudentCount, &s.TeacherCount, &s.ClassCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning tenant row: %w", err)
		}
		tenants = append(tenants, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenant rows: %w", err)
	}

	if tenants == nil {
		tenants = []Summary{}
	}

	return tenants, nil
}

// Update modifies the name and settings of a tenant.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Tenant, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *fields.Name)
		argIdx++
	}
	if fields.Settings != nil {
		setClauses = append(setClauses, fmt.Sprintf("settings = $%d", argIdx))
		args = append(args, *fields.Settings)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE tenants
		SET %s
		WHERE id = $%d
		RETURNING `+tenantColumns,
		strings.Join(setClauses, ", "), argIdx)

	return r.scanOne(ctx, query, args...)
}

// SetActive activates or deactivates a tenant. Admins of an inactive tenant
// cannot log in.
func (r *PostgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Tenant, error) {
	query := `
		UPDATE tenants
		SET is_active = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + tenantColumns

	return r.scanOne(ctx, query, active, id)
}

// Delete removes a tenant. Its admins, classes, students and teachers cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTenantNotFound
	}

	return nil
}

// Stats returns system-wide counters.
func (r *PostgresRepository) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT (SELECT COUNT(*) FROM tenants),
		       (SELECT COUNT(*) FROM tenants WHERE is_active),
		       (SELECT COUNT(*) FROM admins WHERE role = 'tenant_admin'),
		       (SELECT COUNT(*) FROM students),
		       (SELECT COUNT(*) FROM teachers),
		       (SELECT COUNT(*) FROM classes)`

	var s Stats
	err := r.db.QueryRow(ctx, query).Scan(&s.Tenants, &s.ActiveTenants, &s.Admins, &s.Students, &s.Teachers, &s.Classes)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	s.InactiveTenants = s.Tenants - s.ActiveTenants

	return &s, nil
}

// scanOne scans a single Tenant row from a query. Returns ErrTenantNotFound if no rows.
func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Tenant, error) {
	var t Tenant
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.Name, &t.Subdomain, &t.DatabaseName, &t.IsActive, &t.Settings,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("scanning tenant row: %w", err)
	}
	return &t, nil
}
