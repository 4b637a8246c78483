package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Default limits applied when a tenant is created without explicit settings.
const (
	DefaultMaxStudents = 1000
	DefaultMaxTeachers = 100
)

// Settings holds per-tenant limits and feature flags. Stored as JSONB.
type Settings struct {
	MaxStudents int      `json:"maxStudents"`
	MaxTeachers int      `json:"maxTeachers"`
	Features    []string `json:"features"`
}

// Tenant represents a row in the tenants table. A tenant is one school.
type Tenant struct {
	ID           uuid.UUID
	Name         string
	Subdomain    string
	DatabaseName string
	IsActive     bool
	Settings     Settings
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DatabaseNameFor derives the per-tenant database name from a subdomain.
func DatabaseNameFor(subdomain string) string {
	return "userix_tenant_" + subdomain
}

// UpdateFields holds updatable fields. Nil fields are not updated.
type UpdateFields struct {
	Name     *string
	Settings *Settings
}

// Stats aggregates tenant-wide counters for the admin dashboard.
type Stats struct {
	Tenants         int
	ActiveTenants   int
	InactiveTenants int
	Admins          int
	Students        int
	Teachers        int
	Classes         int
}

// Summary is a tenant with its per-tenant counters.
type Summary struct {
	Tenant
	AdminCount   int
	StudentCount int
	TeacherCount int
	ClassCount   int
}
