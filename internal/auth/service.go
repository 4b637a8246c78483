package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned for every failed login, whatever the cause.
var ErrInvalidCredentials = errors.New("invalid email or password")

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	User        *Identity
}

// BootstrapAdmin describes the system administrator seeded at startup.
type BootstrapAdmin struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// TenantAdminInput holds the fields needed to provision a tenant admin.
type TenantAdminInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Service provides authentication operations.
type Service struct {
	store  CredentialStore
	hasher PasswordHasher
	tokens *TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new auth Service.
func NewService(store CredentialStore, hasher PasswordHasher, tokens *TokenIssuer) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
	}
}

// Tokens returns the issuer used to sign and verify access tokens.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// ValidateCredentials resolves an email/password pair to an Identity. Unknown
// emails, wrong passwords, and deactivated accounts or tenants all yield
// ErrInvalidCredentials.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (*Identity, error) {
	cred, err := s.store.FindAdminByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			// Spend a bcrypt comparison so unknown emails cost the same as known ones.
			s.hasher.Compare(s.timingHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding admin by email: %w", err)
	}

	if !s.hasher.Compare(cred.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !cred.IsActive || !cred.TenantActive {
		return nil, ErrInvalidCredentials
	}

	identity := identityFromCredential(cred)
	if !identity.valid() {
		slog.Error("stored admin violates role/tenant invariant", "adminId", cred.ID, "role", cred.Role)
		return nil, ErrInvalidCredentials
	}

	return identity, nil
}

// Login validates credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	identity, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	return &LoginResult{AccessToken: token, User: identity}, nil
}

// Refresh issues a new token for an identity taken from a valid token.
// Credentials are not re-checked.
func (s *Service) Refresh(identity *Identity) (string, error) {
	return s.tokens.Issue(identity)
}

// Bootstrap creates the system administrator if none exists. When
// admin.Password is empty a random password is generated and returned (it is
// only displayed once). Returns an empty string when a system admin already
// exists or when the configured password was used.
func (s *Service) Bootstrap(ctx context.Context, admin BootstrapAdmin) (string, error) {
	count, err := s.store.CountByRole(ctx, RoleSystemAdmin)
	if err != nil {
		return "", fmt.Errorf("counting system admins: %w", err)
	}

	if count > 0 {
		return "", nil
	}

	password := admin.Password
	generated := ""
	if password == "" {
		password, err = GeneratePassword()
		if err != nil {
			return "", fmt.Errorf("generating bootstrap password: %w", err)
		}
		generated = password
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	cred := &Credential{
		Email:        admin.Email,
		PasswordHash: hash,
		Role:         RoleSystemAdmin,
		FirstName:    admin.FirstName,
		LastName:     admin.LastName,
	}
	if err := s.store.Create(ctx, cred); err != nil {
		return "", fmt.Errorf("creating system admin: %w", err)
	}

	if generated != "" {
		slog.Warn("BOOTSTRAP_ADMIN_PASSWORD not set; generated system admin password",
			"email", cred.Email, "password", generated)
	} else {
		slog.Info("system admin created", "email", cred.Email)
	}

	return generated, nil
}

// ProvisionTenantAdmin hashes the password and stores a tenant admin.
func (s *Service) ProvisionTenantAdmin(ctx context.Context, tenantID uuid.UUID, in TenantAdminInput) (*Credential, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	cred := &Credential{
		Email:        in.Email,
		PasswordHash: hash,
		Role:         RoleTenantAdmin,
		TenantID:     &tenantID,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}
	if err := s.store.Create(ctx, cred); err != nil {
		return nil, err
	}

	return cred, nil
}

// ListTenantAdmins returns the admins provisioned for tenantID.
func (s *Service) ListTenantAdmins(ctx context.Context, tenantID uuid.UUID) ([]Credential, error) {
	return s.store.ListByTenant(ctx, tenantID)
}

// ResetPassword replaces the password of a tenant admin with a generated one
// and returns it. The admin must belong to tenantID.
func (s *Service) ResetPassword(ctx context.Context, tenantID uuid.UUID, email string) (string, error) {
	cred, err := s.store.FindAdminByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", err
	}

	if cred.TenantID == nil || *cred.TenantID != tenantID {
		return "", ErrCredentialNotFound
	}

	password, err := GeneratePassword()
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	if err := s.store.UpdatePasswordHash(ctx, cred.ID, hash); err != nil {
		return "", err
	}

	slog.Info("tenant admin password reset", "adminId", cred.ID, "tenantId", tenantID)

	return password, nil
}

// GeneratePassword returns a random URL-safe password of 16 characters.
func GeneratePassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Service) timingHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			slog.Error("failed to compute timing hash", "error", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
