package student

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Student represents a row in the students table.
type Student struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	StudentNumber string
	FirstName     string
	LastName      string
	Email         string
	IPadCode      string
	ClassID       *uuid.UUID
	ClassAddition *string
	TeacherID     *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UpdateFields holds updatable fields. Nil fields are not updated.
type UpdateFields struct {
	FirstName     *string
	LastName      *string
	Email         *string
	IPadCode      *string
	ClassID       *uuid.UUID
	ClassAddition *string
	TeacherID     *uuid.UUID
}

// ListFilter narrows a student listing. Zero values match everything.
type ListFilter struct {
	ClassID   *uuid.UUID
	TeacherID *uuid.UUID
	Search    string
}

const (
	numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digits         = "0123456789"
)

// NewStudentNumber returns an identifier of the form STU-<unixmillis>-<XXXX>.
func NewStudentNumber(now time.Time) (string, error) {
	suffix, err := randomString(numberAlphabet, 4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("STU-%d-%s", now.UnixMilli(), suffix), nil
}

// NewIPadCode returns a numeric code of either 4 or 6 digits.
func NewIPadCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(2))
	if err != nil {
		return "", fmt.Errorf("choosing code length: %w", err)
	}
	length := 4
	if n.Int64() == 1 {
		length = 6
	}
	return randomString(digits, length)
}

func randomString(alphabet string, length int) (string, error) {
	b := make([]byte, length)
	size := big.NewInt(int64(len(alphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generating random string: %w", err)
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
