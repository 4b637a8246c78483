package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTenantNotFound is returned when a tenant record is not found.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrDuplicateSubdomain is returned when a tenant with the same subdomain already exists.
var ErrDuplicateSubdomain = errors.New("tenant subdomain already exists")

// Repository provides CRUD operations on the tenants table.
type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	List(ctx context.Context) ([]Summary, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Tenant, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
}
