package class

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

const classColumns = `id, tenant_id, name, year, description, is_active, created_at, updated_at`

// PostgresRepository implements Repository on Postgres.
type PostgresRepository struct {
	db database.DBTX
}

// NewRepository creates a new Repository backed by db.
func NewRepository(db database.DBTX) Repository {
	return &PostgresRepository{db: db}
}

// Create inserts a new class for c.TenantID.
func (r *PostgresRepository) Create(ctx context.Context, c *Class) error {
	query := `
		INSERT INTO classes (tenant_id, name, year, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, c.TenantID, c.Name, c.Year, c.Description).
		Scan(&c.ID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrDuplicateClass
			case "23503":
				return ErrUnknownTenant
			}
		}
		return fmt.Errorf("inserting class: %w", err)
	}

	return nil
}

// GetByID retrieves a class of the given tenant.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE tenant_id = $1 AND id = $2`
	return r.scanOne(ctx, query, tenantID, id)
}

// List retrieves the classes of a tenant ordered by year and name.
func (r *PostgresRepository) List(ctx context.Context, tenantID uuid.UUID) ([]Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE tenant_id = $1 ORDER BY year, name`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing classes: %w", err)
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.Name, &c.Year, &c.Description, &c.IsActive,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning class row: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating class rows: %w", err)
	}

	if classes == nil {
		classes = []Class{}
	}

	return classes, nil
}

// Update modifies the given fields of a class.
func (r *PostgresRepository) Update(ctx context.Context, tenantID, id uuid.UUID, fields UpdateFields) (*Class, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *fields.Name)
		argIdx++
	}
	if fields.Year != nil {
		setClauses = append(setClauses, fmt.Sprintf("year = $%d", argIdx))
		args = append(args, *fields.Year)
		argIdx++
	}
	if fields.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *fields.Description)
		argIdx++
	}
	if fields.IsActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *fields.IsActive)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, tenantID, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, tenantID, id)

	query := fmt.Sprintf(`
		UPDATE classes
		SET %s
		WHERE tenant_id = $%d AND id = $%d
		RETURNING `+classColumns,
		strings.Join(setClauses, ", "), argIdx, argIdx+1)

	c, err := r.scanOne(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateClass
		}
		return nil, err
	}
	return c, nil
}

// Delete removes a class. Students of the class keep their record with no class.
func (r *PostgresRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM classes WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("deleting class: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrClassNotFound
	}

	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Class, error) {
	var c Class
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Year, &c.Description, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("scanning class row: %w", err)
	}
	return &c, nil
}
