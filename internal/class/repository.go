package class

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrClassNotFound is returned when a class does not exist within the tenant.
var ErrClassNotFound = errors.New("class not found")

// ErrDuplicateClass is returned when the tenant already has a class with the
// same name and year.
var ErrDuplicateClass = errors.New("class already exists")

// ErrUnknownTenant is returned when the owning tenant no longer exists.
var ErrUnknownTenant = errors.New("tenant does not exist")

// Repository provides tenant-scoped CRUD operations on the classes table.
// Every method takes the owning tenant; rows of other tenants are invisible.
type Repository interface {
	Create(ctx context.Context, c *Class) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Class, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Class, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, fields UpdateFields) (*Class, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
