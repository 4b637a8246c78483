package teacher

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

const teacherColumns = `id, tenant_id, teacher_number, first_name, last_name, email, phone, department, subjects, is_active, created_at, updated_at`

// PostgresRepository implements Repository on Postgres.
type PostgresRepository struct {
	db database.DBTX
}

// NewRepository creates a new Repository backed by db.
func NewRepository(db database.DBTX) Repository {
	return &PostgresRepository{db: db}
}

// Create inserts a new teacher for t.TenantID. TeacherNumber must already be set.
func (r *PostgresRepository) Create(ctx context.Context, t *Teacher) error {
	if t.Subjects == nil {
		t.Subjects = []string{}
	}

	query := `
		INSERT INTO teachers (tenant_id, teacher_number, first_name, last_name, email, phone, department, subjects)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_active, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		t.TenantID, t.TeacherNumber, t.FirstName, t.LastName, t.Email, t.Phone, t.Department, t.Subjects,
	).Scan(&t.ID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrDuplicateTeacherNumber
			case "23503":
				return ErrUnknownTenant
			}
		}
		return fmt.Errorf("inserting teacher: %w", err)
	}

	return nil
}

// GetByID retrieves a teacher of the given tenant.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE tenant_id = $1 AND id = $2`

	var t Teacher
	if err := scanTeacher(r.db.QueryRow(ctx, query, tenantID, id), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeacherNotFound
		}
		return nil, fmt.Errorf("scanning teacher row: %w", err)
	}
	return &t, nil
}

// List retrieves the teachers of a tenant ordered by last and first name.
func (r *PostgresRepository) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Teacher, error) {
	conditions := []string{"tenant_id = $1"}
	args := []any{tenantID}
	argIdx := 2

	if dept := strings.TrimSpace(filter.Department); dept != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", argIdx))
		args = append(args, dept)
		argIdx++
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *filter.IsActive)
		argIdx++
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf(
			`(first_name ILIKE $%[1]d ESCAPE '\' OR last_name ILIKE $%[1]d ESCAPE '\' OR email ILIKE $%[1]d ESCAPE '\' OR teacher_number ILIKE $%[1]d ESCAPE '\')`, argIdx))
		args = append(args, database.ContainsPattern(search))
	}

	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY last_name, first_name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing teachers: %w", err)
	}
	defer rows.Close()

	teachers := []Teacher{}
	for rows.Next() {
		var t Teacher
		if err := scanTeacher(rows, &t); err != nil {
			return nil, fmt.Errorf("scanning teacher row: %w", err)
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teacher rows: %w", err)
	}

	return teachers, nil
}

// Update modifies the given fields of a teacher.
func (r *PostgresRepository) Update(ctx context.Context, tenantID, id uuid.UUID, fields UpdateFields) (*Teacher, error) {
	var setClauses []string
	var args []any

	set := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.FirstName != nil {
		set("first_name", *fields.FirstName)
	}
	if fields.LastName != nil {
		set("last_name", *fields.LastName)
	}
	if fields.Email != nil {
		set("email", *fields.Email)
	}
	if fields.Phone != nil {
		set("phone", *fields.Phone)
	}
	if fields.Department != nil {
		set("department", *fields.Department)
	}
	if fields.Subjects != nil {
		subjects := *fields.Subjects
		if subjects == nil {
			subjects = []string{}
		}
		set("subjects", subjects)
	}
	if fields.IsActive != nil {
		set("is_active", *fields.IsActive)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, tenantID, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, tenantID, id)

	query := fmt.Sprintf(`
		UPDATE teachers
		SET %s
		WHERE tenant_id = $%d AND id = $%d
		RETURNING `+teacherColumns,
		strings.Join(setClauses, ", "), len(args)-1, len(args))

	var t Teacher
	if err := scanTeacher(r.db.QueryRow(ctx, query, args...), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeacherNotFound
		}
		return nil, fmt.Errorf("updating teacher: %w", err)
	}
	return &t, nil
}

// Delete removes a teacher. Assigned students keep their record with no teacher.
func (r *PostgresRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM teachers WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("deleting teacher: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTeacherNotFound
	}

	return nil
}

// CountByTenant returns the number of teachers of a tenant.
func (r *PostgresRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM teachers WHERE tenant_id = $1`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting teachers: %w", err)
	}
	return count, nil
}

func scanTeacher(row pgx.Row, t *Teacher) error {
	return row.Scan(
		&t.ID, &t.TenantID, &t.TeacherNumber, &t.FirstName, &t.LastName,
		&t.Email, &t.Phone, &t.Department, &t.Subjects, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt,
	)
}
