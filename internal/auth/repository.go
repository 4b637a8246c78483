package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrCredentialNotFound is returned when no admin matches the lookup.
var ErrCredentialNotFound = errors.New("credential not found")

// ErrDuplicateEmail is returned when an admin with the same email already exists.
// Emails are unique across all tenants.
var ErrDuplicateEmail = errors.New("email already registered")

// CredentialStore provides operations on the admins table.
type CredentialStore interface {
	Create(ctx context.Context, c *Credential) error
	FindAdminByEmail(ctx context.Context, email string) (*Credential, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]Credential, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	CountByRole(ctx context.Context, role Role) (int, error)
}
