package class

import (
	"time"

	"github.com/google/uuid"
)

// Class represents a row in the classes table. Every class belongs to exactly
// one tenant.
type Class struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Year        int
	Description *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpdateFields holds updatable fields. Nil fields are not updated.
type UpdateFields struct {
	Name        *string
	Year        *int
	Description *string
	IsActive    *bool
}
