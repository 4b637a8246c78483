package teacher

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Teacher represents a row in the teachers table. Every teacher belongs to
// exactly one tenant.
type Teacher struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	TeacherNumber string
	FirstName     string
	LastName      string
	Email         *string
	Phone         *string
	Department    *string
	Subjects      []string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UpdateFields holds updatable fields. Nil fields are not updated.
type UpdateFields struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Phone      *string
	Department *string
	Subjects   *[]string
	IsActive   *bool
}

// ListFilter narrows a teacher listing. Zero values match everything.
type ListFilter struct {
	Department string
	Search     string
	IsActive   *bool
}

const numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTeacherNumber returns an identifier of the form TEA-<unixmillis>-<XXXX>.
func NewTeacherNumber(now time.Time) (string, error) {
	b := make([]byte, 4)
	size := big.NewInt(int64(len(numberAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generating teacher number: %w", err)
		}
		b[i] = numberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("TEA-%d-%s", now.UnixMilli(), b), nil
}
