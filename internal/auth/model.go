package auth

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role carried by an Identity.
type Role string

const (
	// RoleSystemAdmin administers all tenants and never carries a tenant ID.
	RoleSystemAdmin Role = "admin"
	// RoleTenantAdmin administers the data of exactly one tenant.
	RoleTenantAdmin Role = "tenant_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleSystemAdmin || r == RoleTenantAdmin
}

// Credential represents a row in the admins table.
type Credential struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         Role
	TenantID     *uuid.UUID // nil for system admins
	FirstName    string
	LastName     string
	IsActive     bool
	TenantActive bool // false when the owning tenant is deactivated; always true for system admins
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated principal. It is built from a Credential at
// login and rebuilt from token claims on every authenticated request.
type Identity struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Role      Role
	TenantID  *uuid.UUID // set iff Role == RoleTenantAdmin
}

// IsSystemAdmin reports whether the identity has the system administrator role.
func (i *Identity) IsSystemAdmin() bool {
	return i.Role == RoleSystemAdmin
}

// valid checks the role/tenant invariant.
func (i *Identity) valid() bool {
	switch i.Role {
	case RoleSystemAdmin:
		return i.TenantID == nil
	case RoleTenantAdmin:
		return i.TenantID != nil && *i.TenantID != uuid.Nil
	default:
		return false
	}
}

func identityFromCredential(c *Credential) *Identity {
	return &Identity{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      c.Role,
		TenantID:  c.TenantID,
	}
}
