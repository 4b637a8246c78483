package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// FallbackSecret signs tokens when no secret is configured. It keeps a
// development instance operable and must never be relied on in production.
const FallbackSecret = "userix_jwt_secret_2024_very_secure"

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrTokenExpired is returned when a token's exp is not after the current time.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for bad signatures, malformed tokens, and
	// payloads that do not describe a valid Identity.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrMisconfiguredSecret is returned at startup when strict mode is on
	// and no signing secret is configured.
	ErrMisconfiguredSecret = errors.New("JWT signing secret is not configured")
)

// TokenConfig holds signing configuration for a TokenIssuer.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
	// Strict refuses to fall back to FallbackSecret when Secret is empty.
	Strict bool
}

// claims is the wire shape of an access token.
type claims struct {
	Email     string  `json:"email"`
	Role      Role    `json:"role"`
	TenantID  *string `json:"tenantId"`
	FirstName string  `json:"firstName,omitempty"`
	LastName  string  `json:"lastName,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer from cfg. An empty secret selects
// FallbackSecret and logs a warning, unless cfg.Strict is set.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	secret := cfg.Secret
	if secret == "" {
		if cfg.Strict {
			return nil, ErrMisconfiguredSecret
		}
		slog.Warn("JWT_SECRET not set; signing tokens with the built-in fallback secret")
		secret = FallbackSecret
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// SetClock replaces the time source. Intended for tests.
func (t *TokenIssuer) SetClock(now func() time.Time) {
	t.now = now
}

// Issue signs a token for identity that expires TTL from now.
func (t *TokenIssuer) Issue(identity *Identity) (string, error) {
	if identity == nil || !identity.valid() {
		return "", fmt.Errorf("issuing token: %w", ErrTokenInvalid)
	}

	now := t.now()
	c := claims{
		Email:     identity.Email,
		Role:      identity.Role,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	if identity.TenantID != nil {
		tid := identity.TenantID.String()
		c.TenantID = &tid
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and rebuilds the Identity
// it carries. It returns ErrTokenExpired or ErrTokenInvalid on failure.
func (t *TokenIssuer) Verify(token string) (*Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	identity := &Identity{
		ID:        id,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      c.Role,
	}
	if c.TenantID != nil {
		tid, err := uuid.Parse(*c.TenantID)
		if err != nil {
			return nil, ErrTokenInvalid
		}
		identity.TenantID = &tid
	}

	if !identity.valid() {
		return nil, ErrTokenInvalid
	}

	return identity, nil
}
