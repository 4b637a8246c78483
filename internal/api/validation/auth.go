package validation

// LoginRequest mirrors the fields needed for login validation.
type LoginRequest struct {
	Email    string
	Password string
}

// ValidateLoginRequest checks email syntax and that a password was supplied.
// Password content is not otherwise constrained here.
func ValidateLoginRequest(req LoginRequest) []FieldError {
	var errs []FieldError

	errs = requireEmail(errs, "email", req.Email)

	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	} else if len(req.Password) > maxPasswordBytes {
		errs = append(errs, FieldError{Field: "password", Message: "password must be at most 72 bytes"})
	}

	return errs
}
