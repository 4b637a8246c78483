package teacher

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTeacherNotFound is returned when a teacher does not exist within the tenant.
var ErrTeacherNotFound = errors.New("teacher not found")

// ErrDuplicateTeacherNumber is returned when a generated teacher number collides.
var ErrDuplicateTeacherNumber = errors.New("teacher number already exists")

// ErrUnknownTenant is returned when the owning tenant no longer exists.
var ErrUnknownTenant = errors.New("tenant does not exist")

// Repository provides tenant-scoped CRUD operations on the teachers table.
type Repository interface {
	Create(ctx context.Context, t *Teacher) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Teacher, error)
	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Teacher, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, fields UpdateFields) (*Teacher, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
}
