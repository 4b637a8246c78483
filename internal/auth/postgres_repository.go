package auth

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

// PostgresRepository implements CredentialStore on Postgres.
type PostgresRepository struct {
	db database.DBTX
}

// NewRepository creates a new CredentialStore backed by db.
func NewRepository(db database.DBTX) CredentialStore {
	return &PostgresRepository{db: db}
}

// Create inserts a new admin record. The email is stored lower-cased.
func (r *PostgresRepository) Create(ctx context.Context, c *Credential) error {
	c.Email = normalizeEmail(c.Email)

	query := `
		INSERT INTO admins (email, password_hash, role, tenant_id, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		c.Email,
		c.PasswordHash,
		string(c.Role),
		c.TenantID,
		c.FirstName,
		c.LastName,
	).Scan(&c.ID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting admin: %w", err)
	}

	c.TenantActive = true
	return nil
}

// FindAdminByEmail looks up an admin by case-insensitive email. TenantActive
// reflects the owning tenant's is_active flag.
func (r *PostgresRepository) FindAdminByEmail(ctx context.Context, email string) (*Credential, error) {
	query := `
		SELECT a.id, a.email, a.password_hash, a.role, a.tenant_id, a.first_name, a.last_name,
		       a.is_active, COALESCE(t.is_active, TRUE), a.created_at, a.updated_at
		FROM admins a
		LEFT JOIN tenants t ON a.tenant_id = t.id
		WHERE LOWER(a.email) = $1`

	var (
		c    Credential
		role string
	)
	err := r.db.QueryRow(ctx, query, normalizeEmail(email)).Scan(
		&c.ID, &c.Email, &c.PasswordHash, &role, &c.TenantID, &c.FirstName, &c.LastName,
		&c.IsActive, &c.TenantActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("querying admin: %w", err)
	}
	c.Role = Role(role)

	return &c, nil
}

// ListByTenant returns the admins of a tenant ordered by creation time.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]Credential, error) {
	query := `
		SELECT id, email, role, tenant_id, first_name, last_name, is_active, created_at, updated_at
		FROM admins
		WHERE tenant_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	defer rows.Close()

	var creds []Credential
	for rows.Next() {
		var (
			c    Credential
			role string
		)
		err := rows.Scan(&c.ID, &c.Email, &role, &c.TenantID, &c.FirstName, &c.LastName,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning admin row: %w", err)
		}
		c.Role = Role(role)
		c.TenantActive = true
		creds = append(creds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating admin rows: %w", err)
	}

	if creds == nil {
		creds = []Credential{}
	}

	return creds, nil
}

// UpdatePasswordHash replaces the stored hash of an admin.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `
		UPDATE admins
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("updating password hash: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}

	return nil
}

// CountByRole returns the number of admins with the given role.
func (r *PostgresRepository) CountByRole(ctx context.Context, role Role) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM admins WHERE role = $1", string(role)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return count, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
