package student

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrStudentNotFound is returned when a student does not exist within the tenant.
var ErrStudentNotFound = errors.New("student not found")

// ErrDuplicateStudentNumber is returned when a generated student number collides.
var ErrDuplicateStudentNumber = errors.New("student number already exists")

// ErrUnknownClass is returned when the referenced class does not exist.
var ErrUnknownClass = errors.New("referenced class does not exist")

// ErrUnknownTeacher is returned when the referenced teacher does not exist.
var ErrUnknownTeacher = errors.New("referenced teacher does not exist")

// ErrUnknownTenant is returned when the owning tenant no longer exists.
var ErrUnknownTenant = errors.New("tenant does not exist")

// Repository provides tenant-scoped CRUD operations on the students table.
type Repository interface {
	Create(ctx context.Context, s *Student) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Student, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Student, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, fields UpdateFields) (*Student, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
}
