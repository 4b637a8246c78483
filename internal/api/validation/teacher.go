package validation

// TeacherRequest mirrors the fields of a teacher create or update request.
// Pointer fields are optional on update.
type TeacherRequest struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Phone      *string
	Department *string
	Subjects   []string
}

// ValidateCreateTeacherRequest validates a create teacher request. Contact
// details, department and subjects are optional.
func ValidateCreateTeacherRequest(req TeacherRequest) []FieldError {
	var errs []FieldError

	errs = requireName(errs, "firstName", deref(req.FirstName))
	errs = requireName(errs, "lastName", deref(req.LastName))
	errs = validateTeacherOptional(errs, req)

	return errs
}

// ValidateUpdateTeacherRequest validates a partial teacher update.
func ValidateUpdateTeacherRequest(req TeacherRequest) []FieldError {
	var errs []FieldError

	if req.FirstName != nil {
		errs = requireName(errs, "firstName", *req.FirstName)
	}
	if req.LastName != nil {
		errs = requireName(errs, "lastName", *req.LastName)
	}
	errs = validateTeacherOptional(errs, req)

	return errs
}

func validateTeacherOptional(errs []FieldError, req TeacherRequest) []FieldError {
	if req.Email != nil {
		errs = requireEmail(errs, "email", *req.Email)
	}
	if req.Phone != nil && validate.Var(*req.Phone, "max=64,printascii") != nil {
		errs = append(errs, FieldError{Field: "phone", Message: "phone must be at most 64 printable characters"})
	}
	if req.Department != nil {
		errs = requireName(errs, "department", *req.Department)
	}
	return validateFeatures(errs, "subjects", req.Subjects)
}
