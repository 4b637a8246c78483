package validation

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ipadCodeRegex = regexp.MustCompile(`^\d{4,6}$`)

// ClassRequest mirrors the fields of a class create or update request.
// Pointer fields are optional on update.
type ClassRequest struct {
	Name        *string
	Year        *int
	Description *string
}

// ValidateCreateClassRequest validates a create class request.
func ValidateCreateClassRequest(req ClassRequest) []FieldError {
	var errs []FieldError

	if req.Name == nil {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else {
		errs = requireName(errs, "name", *req.Name)
	}

	if req.Year == nil {
		errs = append(errs, FieldError{Field: "year", Message: "year is required"})
	} else {
		errs = validateYear(errs, *req.Year)
	}

	return errs
}

// ValidateUpdateClassRequest validates a partial class update.
func ValidateUpdateClassRequest(req ClassRequest) []FieldError {
	var errs []FieldError

	if req.Name != nil {
		errs = requireName(errs, "name", *req.Name)
	}
	if req.Year != nil {
		errs = validateYear(errs, *req.Year)
	}

	return errs
}

func validateYear(errs []FieldError, year int) []FieldError {
	if year < 1900 || year > 2200 {
		return append(errs, FieldError{Field: "year", Message: "year must be between 1900 and 2200"})
	}
	return errs
}

// StudentRequest mirrors the fields of a student create or update request.
type StudentRequest struct {
	FirstName     *string
	LastName      *string
	Email         *string
	IPadCode      *string
	ClassID       *string
	ClassAddition *string
	TeacherID     *string
}

// ValidateCreateStudentRequest validates a create student request. IPadCode,
// class and teacher fields are optional.
func ValidateCreateStudentRequest(req StudentRequest) []FieldError {
	var errs []FieldError

	errs = requireName(errs, "firstName", deref(req.FirstName))
	errs = requireName(errs, "lastName", deref(req.LastName))
	errs = requireEmail(errs, "email", deref(req.Email))
	errs = validateStudentOptional(errs, req)

	return errs
}

// ValidateUpdateStudentRequest validates a partial student update.
func ValidateUpdateStudentRequest(req StudentRequest) []FieldError {
	var errs []FieldError

	if req.FirstName != nil {
		errs = requireName(errs, "firstName", *req.FirstName)
	}
	if req.LastName != nil {
		errs = requireName(errs, "lastName", *req.LastName)
	}
	if req.Email != nil {
		errs = requireEmail(errs, "email", *req.Email)
	}
	errs = validateStudentOptional(errs, req)

	return errs
}

func validateStudentOptional(errs []FieldError, req StudentRequest) []FieldError {
	if req.IPadCode != nil && !ipadCodeRegex.MatchString(*req.IPadCode) {
		errs = append(errs, FieldError{Field: "ipadCode", Message: "ipadCode must be 4 to 6 digits"})
	}
	if req.ClassID != nil {
		if _, err := uuid.Parse(*req.ClassID); err != nil {
			errs = append(errs, FieldError{Field: "classId", Message: "classId must be a valid UUID"})
		}
	}
	if req.TeacherID != nil {
		if _, err := uuid.Parse(*req.TeacherID); err != nil {
			errs = append(errs, FieldError{Field: "teacherId", Message: "teacherId must be a valid UUID"})
		}
	}
	if req.ClassAddition != nil {
		switch strings.ToUpper(*req.ClassAddition) {
		case "A", "B", "C":
		default:
			errs = append(errs, FieldError{Field: "classAddition", Message: "classAddition must be one of A, B, C"})
		}
	}
	return errs
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
