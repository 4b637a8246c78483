package validation

import (
	"strings"
)

// SettingsInput mirrors tenant settings in create and update requests.
type SettingsInput struct {
	MaxStudents *int
	MaxTeachers *int
	Features    []string
}

// CreateTenantRequest mirrors the fields needed for create tenant validation.
type CreateTenantRequest struct {
	Name        string
	Subdomain   string
	MaxStudents *int
	MaxTeachers *int
	Features    []string
}

// ValidateCreateTenantRequest validates the fields of a create tenant request.
func ValidateCreateTenantRequest(req CreateTenantRequest) []FieldError {
	var errs []FieldError

	errs = requireName(errs, "name", req.Name)

	if req.Subdomain == "" {
		errs = append(errs, FieldError{Field: "subdomain", Message: "subdomain is required"})
	} else if !subdomainRegex.MatchString(req.Subdomain) {
		errs = append(errs, FieldError{Field: "subdomain", Message: "subdomain must be lowercase alphanumeric with hyphens, 1-63 characters"})
	} else if strings.Contains(req.Subdomain, "--") {
		errs = append(errs, FieldError{Field: "subdomain", Message: "subdomain must not contain consecutive hyphens"})
	}

	errs = validateLimits(errs, "", req.MaxStudents, req.MaxTeachers)
	errs = validateFeatures(errs, "features", req.Features)

	return errs
}

// UpdateTenantRequest mirrors the fields needed for update tenant validation.
type UpdateTenantRequest struct {
	Name     *string
	Settings *SettingsInput
}

// ValidateUpdateTenantRequest validates a partial tenant update.
func ValidateUpdateTenantRequest(req UpdateTenantRequest) []FieldError {
	var errs []FieldError

	if req.Name == nil && req.Settings == nil {
		return append(errs, FieldError{Field: "body", Message: "at least one of name or settings is required"})
	}

	if req.Name != nil {
		errs = requireName(errs, "name", *req.Name)
	}

	if req.Settings != nil {
		if req.Settings.MaxStudents == nil {
			errs = append(errs, FieldError{Field: "settings.maxStudents", Message: "settings.maxStudents is required"})
		}
		if req.Settings.MaxTeachers == nil {
			errs = append(errs, FieldError{Field: "settings.maxTeachers", Message: "settings.maxTeachers is required"})
		}
		errs = validateLimits(errs, "settings.", req.Settings.MaxStudents, req.Settings.MaxTeachers)
		errs = validateFeatures(errs, "settings.features", req.Settings.Features)
	}

	return errs
}

// TenantStatusRequest mirrors the body of a tenant status change.
type TenantStatusRequest struct {
	IsActive *bool
}

// ValidateTenantStatusRequest requires isActive to be present.
func ValidateTenantStatusRequest(req TenantStatusRequest) []FieldError {
	if req.IsActive == nil {
		return []FieldError{{Field: "isActive", Message: "isActive is required"}}
	}
	return nil
}

// CreateTenantAdminRequest mirrors the fields needed to provision a tenant admin.
type CreateTenantAdminRequest struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// ValidateCreateTenantAdminRequest validates a tenant admin provisioning request.
func ValidateCreateTenantAdminRequest(req CreateTenantAdminRequest) []FieldError {
	var errs []FieldError

	errs = requireEmail(errs, "email", req.Email)
	errs = requireName(errs, "firstName", req.FirstName)
	errs = requireName(errs, "lastName", req.LastName)

	switch {
	case req.Password == "":
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	case len(req.Password) < 6:
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 6 characters"})
	case len(req.Password) > maxPasswordBytes:
		errs = append(errs, FieldError{Field: "password", Message: "password must be at most 72 bytes"})
	}

	return errs
}

// ResetPasswordRequest mirrors the body of a tenant admin password reset.
type ResetPasswordRequest struct {
	AdminEmail string
}

// ValidateResetPasswordRequest validates a password reset request.
func ValidateResetPasswordRequest(req ResetPasswordRequest) []FieldError {
	return requireEmail(nil, "adminEmail", req.AdminEmail)
}

func validateLimits(errs []FieldError, prefix string, maxStudents, maxTeachers *int) []FieldError {
	if maxStudents != nil && *maxStudents < 1 {
		errs = append(errs, FieldError{Field: prefix + "maxStudents", Message: prefix + "maxStudents must be positive"})
	}
	if maxTeachers != nil && *maxTeachers < 1 {
		errs = append(errs, FieldError{Field: prefix + "maxTeachers", Message: prefix + "maxTeachers must be positive"})
	}
	return errs
}

func validateFeatures(errs []FieldError, field string, features []string) []FieldError {
	for _, f := range features {
		if strings.TrimSpace(f) == "" {
			return append(errs, FieldError{Field: field, Message: field + " must not contain empty entries"})
		}
	}
	return errs
}
