// Package seed loads tenants and their administrators from a YAML file at
// startup.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"sigs.k8s.io/yaml"

	"github.com/userix/userix/internal/api/validation"
	"github.com/userix/userix/internal/auth"
	"github.com/userix/userix/internal/tenant"
)

// File is the top-level document of a seed file.
type File struct {
	Tenants []Tenant `json:"tenants"`
}

// Tenant describes one tenant and the admins to provision for it.
type Tenant struct {
	Name        string   `json:"name"`
	Subdomain   string   `json:"subdomain"`
	MaxStudents *int     `json:"maxStudents,omitempty"`
	MaxTeachers *int     `json:"maxTeachers,omitempty"`
	Features    []string `json:"features,omitempty"`
	Admins      []Admin  `json:"admins,omitempty"`
}

// Admin describes a tenant administrator.
type Admin struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// Result summarises what Apply changed.
type Result struct {
	TenantsCreated int
	TenantsSkipped int
	AdminsCreated  int
	AdminsSkipped  int
}

// AdminProvisioner creates tenant administrators.
type AdminProvisioner interface {
	ProvisionTenantAdmin(ctx context.Context, tenantID uuid.UUID, in auth.TenantAdminInput) (*auth.Credential, error)
}

// Parse decodes and validates a seed document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	seen := make(map[string]bool, len(f.Tenants))
	for i, t := range f.Tenants {
		errs := validation.ValidateCreateTenantRequest(validation.CreateTenantRequest{
			Name:        t.Name,
			Subdomain:   t.Subdomain,
			MaxStudents: t.MaxStudents,
			MaxTeachers: t.MaxTeachers,
			Features:    t.Features,
		})
		for j, a := range t.Admins {
			for _, e := range validation.ValidateCreateTenantAdminRequest(validation.CreateTenantAdminRequest(a)) {
				errs = append(errs, validation.FieldError{Field: fmt.Sprintf("admins[%d].%s", j, e.Field), Message: e.Message})
			}
		}
		if len(errs) > 0 {
			return nil, fmt.Errorf("tenants[%d] (%q): %s", i, t.Subdomain, joinFieldErrors(errs))
		}
		if seen[t.Subdomain] {
			return nil, fmt.Errorf("tenants[%d]: duplicate subdomain %q", i, t.Subdomain)
		}
		seen[t.Subdomain] = true
	}

	return &f, nil
}

// LoadFile reads and parses the seed file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Seeder applies seed files.
type Seeder struct {
	tenants tenant.Repository
	admins  AdminProvisioner
}

// NewSeeder creates a Seeder.
func NewSeeder(tenants tenant.Repository, admins AdminProvisioner) *Seeder {
	return &Seeder{tenants: tenants, admins: admins}
}

// Apply creates every tenant in f whose subdomain does not exist yet and
// provisions the listed admins of every tenant, new or existing. Admins whose
// email is already registered are skipped, so Apply can run on every startup
// and completes a seed that failed part way.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	var res Result

	for _, st := range f.Tenants {
		t, err := s.tenants.GetBySubdomain(ctx, st.Subdomain)
		switch {
		case err == nil:
			res.TenantsSkipped++
		case errors.Is(err, tenant.ErrTenantNotFound):
			t, err = s.createTenant(ctx, st)
			if err != nil {
				return res, err
			}
			res.TenantsCreated++
		default:
			return res, fmt.Errorf("looking up tenant %q: %w", st.Subdomain, err)
		}

		for _, a := range st.Admins {
			_, err := s.admins.ProvisionTenantAdmin(ctx, t.ID, auth.TenantAdminInput{
				Email:     a.Email,
				FirstName: a.FirstName,
				LastName:  a.LastName,
				Password:  a.Password,
			})
			if errors.Is(err, auth.ErrDuplicateEmail) {
				slog.Debug("seed admin email already registered, skipping", "email", a.Email, "subdomain", t.Subdomain)
				res.AdminsSkipped++
				continue
			}
			if err != nil {
				return res, fmt.Errorf("provisioning admin %q for tenant %q: %w", a.Email, st.Subdomain, err)
			}
			res.AdminsCreated++
		}
	}

	return res, nil
}

func (s *Seeder) createTenant(ctx context.Context, st Tenant) (*tenant.Tenant, error) {
	t := &tenant.Tenant{
		Name:      st.Name,
		Subdomain: st.Subdomain,
		Settings:  tenant.Settings{Features: st.Features},
	}
	if st.MaxStudents != nil {
		t.Settings.MaxStudents = *st.MaxStudents
	}
	if st.MaxTeachers != nil {
		t.Settings.MaxTeachers = *st.MaxTeachers
	}

	if err := s.tenants.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating tenant %q: %w", st.Subdomain, err)
	}
	slog.Info("seeded tenant", "tenantId", t.ID, "subdomain", t.Subdomain)
	return t, nil
}

func joinFieldErrors(errs []validation.FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}
