package student

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

const studentColumns = `id, tenant_id, student_number, first_name, last_name, email, ipad_code, class_id, class_addition, teacher_id, created_at, updated_at`

// PostgresRepository implements Repository on Postgres.
type PostgresRepository struct {
	db database.DBTX
}

// NewRepository creates a new Repository backed by db.
func NewRepository(db database.DBTX) Repository {
	return &PostgresRepository{db: db}
}

// Create inserts a new student for s.TenantID. StudentNumber and IPadCode
// must already be set.
func (r *PostgresRepository) Create(ctx context.Context, s *Student) error {
	query := `
		INSERT INTO students (tenant_id, student_number, first_name, last_name, email, ipad_code, class_id, class_addition, teacher_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		s.TenantID, s.StudentNumber, s.FirstName, s.LastName, s.Email, s.IPadCode, s.ClassID, s.ClassAddition, s.TeacherID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "inserting student")
	}

	return nil
}

// GetByID retrieves a student of the given tenant.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE tenant_id = $1 AND id = $2`
	return r.scanOne(ctx, query, tenantID, id)
}

// List retrieves the students of a tenant ordered by last and first name.
func (r *PostgresRepository) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Student, error) {
	conditions := []string{"tenant_id = $1"}
	args := []any{tenantID}
	argIdx := 2

	if filter.ClassID != nil {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", argIdx))
		args = append(args, *filter.ClassID)
		argIdx++
	}
	if filter.TeacherID != nil {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", argIdx))
		args = append(args, *filter.TeacherID)
		argIdx++
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf(
			`(first_name ILIKE $%[1]d ESCAPE '\' OR last_name ILIKE $%[1]d ESCAPE '\' OR email ILIKE $%[1]d ESCAPE '\' OR student_number ILIKE $%[1]d ESCAPE '\')`, argIdx))
		args = append(args, database.ContainsPattern(search))
	}

	query := `SELECT ` + studentColumns + ` FROM students WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY last_name, first_name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := scanStudent(rows, &s); err != nil {
			return nil, fmt.Errorf("scanning student row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating student rows: %w", err)
	}

	if students == nil {
		students = []Student{}
	}

	return students, nil
}

// Update modifies the given fields of a student.
func (r *PostgresRepository) Update(ctx context.Context, tenantID, id uuid.UUID, fields UpdateFields) (*Student, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if fields.FirstName != nil {
		add("first_name", *fields.FirstName)
	}
	if fields.LastName != nil {
		add("last_name", *fields.LastName)
	}
	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.IPadCode != nil {
		add("ipad_code", *fields.IPadCode)
	}
	if fields.ClassID != nil {
		add("class_id", *fields.ClassID)
	}
	if fields.ClassAddition != nil {
		add("class_addition", *fields.ClassAddition)
	}
	if fields.TeacherID != nil {
		add("teacher_id", *fields.TeacherID)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, tenantID, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, tenantID, id)

	query := fmt.Sprintf(`
		UPDATE students
		SET %s
		WHERE tenant_id = $%d AND id = $%d
		RETURNING `+studentColumns,
		strings.Join(setClauses, ", "), argIdx, argIdx+1)

	var s Student
	if err := scanStudent(r.db.QueryRow(ctx, query, args...), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, mapWriteError(err, "updating student")
	}
	return &s, nil
}

// Delete removes a student.
func (r *PostgresRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM students WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("deleting student: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrStudentNotFound
	}

	return nil
}

// CountByTenant returns the number of students enrolled in a tenant.
func (r *PostgresRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM students WHERE tenant_id = $1`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting students: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Student, error) {
	var s Student
	if err := scanStudent(r.db.QueryRow(ctx, query, args...), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("scanning student row: %w", err)
	}
	return &s, nil
}

func scanStudent(row pgx.Row, s *Student) error {
	return row.Scan(
		&s.ID, &s.TenantID, &s.StudentNumber, &s.FirstName, &s.LastName, &s.Email,
		&s.IPadCode, &s.ClassID, &s.ClassAddition, &s.TeacherID, &s.CreatedAt, &s.UpdatedAt,
	)
}

// Foreign key constraints on the students table.
const (
	tenantFK  = "students_tenant_id_fkey"
	teacherFK = "students_teacher_id_fkey"
)

func mapWriteError(err error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateStudentNumber
		case "23503":
			switch pgErr.ConstraintName {
			case tenantFK:
				return ErrUnknownTenant
			case teacherFK:
				return ErrUnknownTeacher
			default:
				return ErrUnknownClass
			}
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}
