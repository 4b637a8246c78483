package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/userix/userix/internal/api/middleware"
	"github.com/userix/userix/internal/api/response"
	"github.com/userix/userix/internal/api/validation"
	"github.com/userix/userix/internal/auth"
	"github.com/userix/userix/internal/metrics"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      string  `json:"role"`
	TenantID  *string `json:"tenantId"`
}

func toIdentityResponse(i *auth.Identity) identityResponse {
	resp := identityResponse{
		ID:        i.ID.String(),
		Email:     i.Email,
		FirstName: i.FirstName,
		LastName:  i.LastName,
		Role:      string(i.Role),
	}
	if i.TenantID != nil {
		tid := i.TenantID.String()
		resp.TenantID = &tid
	}
	return resp
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

type loginResponse struct {
	tokenResponse
	User identityResponse `json:"user"`
}

// AuthHandler handles login, profile, and token refresh endpoints.
type AuthHandler struct {
	svc       *auth.Service
	collector *metrics.Collector
}

// NewAuthHandler creates a new AuthHandler. collector may be nil.
func NewAuthHandler(svc *auth.Service, collector *metrics.Collector) *AuthHandler {
	return &AuthHandler{svc: svc, collector: collector}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req loginRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.collector.RecordLogin(metrics.LoginInvalid)
			response.Err(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", requestID)
			return
		}
		h.collector.RecordLogin(metrics.LoginError)
		slog.Error("failed to log in", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed", requestID)
		return
	}

	h.collector.RecordLogin(metrics.LoginSuccess)
	slog.Info("admin logged in", "adminId", result.User.ID, "role", result.User.Role)

	response.Success(w, http.StatusOK, loginResponse{
		tokenResponse: h.tokenResponse(result.AccessToken),
		User:          toIdentityResponse(result.User),
	}, requestID)
}

// Profile handles GET /auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token is required", requestID)
		return
	}

	response.Success(w, http.StatusOK, toIdentityResponse(identity), requestID)
}

// Refresh handles POST /auth/refresh. The new token carries the identity of
// the presented token; credentials are not re-checked.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token is required", requestID)
		return
	}

	token, err := h.svc.Refresh(identity)
	if err != nil {
		slog.Error("failed to refresh token", "error", err, "adminId", identity.ID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to refresh token", requestID)
		return
	}

	response.Success(w, http.StatusOK, h.tokenResponse(token), requestID)
}

// Health handles GET /auth/health.
func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "auth",
	}, middleware.GetRequestID(r.Context()))
}

func (h *AuthHandler) tokenResponse(token string) tokenResponse {
	return tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.svc.Tokens().TTL().Seconds()),
	}
}
