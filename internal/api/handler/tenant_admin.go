package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/userix/userix/internal/api/middleware"
	"github.com/userix/userix/internal/api/response"
	"github.com/userix/userix/internal/api/validation"
	"github.com/userix/userix/internal/auth"
	"github.com/userix/userix/internal/tenant"
)

type createTenantAdminRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type resetPasswordRequest struct {
	AdminEmail string `json:"adminEmail"`
}

type adminResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      string  `json:"role"`
	TenantID  *string `json:"tenantId"`
	IsActive  bool    `json:"isActive"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type resetPasswordResponse struct {
	AdminEmail        string `json:"adminEmail"`
	TemporaryPassword string `json:"temporaryPassword"`
}

func toAdminResponse(c *auth.Credential) adminResponse {
	resp := adminResponse{
		ID:        c.ID.String(),
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      string(c.Role),
		IsActive:  c.IsActive,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
	if c.TenantID != nil {
		tid := c.TenantID.String()
		resp.TenantID = &tid
	}
	return resp
}

// TenantAdminHandler handles provisioning of tenant administrators.
type TenantAdminHandler struct {
	tenants tenant.Repository
	svc     *auth.Service
}

// NewTenantAdminHandler creates a new TenantAdminHandler.
func NewTenantAdminHandler(tenants tenant.Repository, svc *auth.Service) *TenantAdminHandler {
	return &TenantAdminHandler{tenants: tenants, svc: svc}
}

// Create handles POST /admin/tenants/{id}/admins.
func (h *TenantAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := h.existingTenant(w, r, requestID)
	if !ok {
		return
	}

	var req createTenantAdminRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := validation.ValidateCreateTenantAdminRequest(validation.CreateTenantAdminRequest{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	cred, err := h.svc.ProvisionTenantAdmin(r.Context(), tenantID, auth.TenantAdminInput{
		Email:     req.Email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			response.Err(w, http.StatusConflict, "DUPLICATE_EMAIL", "An admin with this email already exists", requestID)
			return
		}
		slog.Error("failed to provision tenant admin", "error", err, "tenantId", tenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create tenant admin", requestID)
		return
	}

	slog.Info("tenant admin provisioned", "adminId", cred.ID, "tenantId", tenantID)
	response.Success(w, http.StatusCreated, toAdminResponse(cred), requestID)
}

// List handles GET /admin/tenants/{id}/admins.
func (h *TenantAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := h.existingTenant(w, r, requestID)
	if !ok {
		return
	}

	creds, err := h.svc.ListTenantAdmins(r.Context(), tenantID)
	if err != nil {
		slog.Error("failed to list tenant admins", "error", err, "tenantId", tenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tenant admins", requestID)
		return
	}

	items := make([]adminResponse, 0, len(creds))
	for i := range creds {
		items = append(items, toAdminResponse(&creds[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// ResetPassword handles POST /admin/tenants/{id}/reset-password. The
// generated password is returned once and only its hash is stored.
func (h *TenantAdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := h.existingTenant(w, r, requestID)
	if !ok {
		return
	}

	var req resetPasswordRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}
	req.AdminEmail = strings.TrimSpace(req.AdminEmail)

	if fieldErrors := validation.ValidateResetPasswordRequest(validation.ResetPasswordRequest{AdminEmail: req.AdminEmail}); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	password, err := h.svc.ResetPassword(r.Context(), tenantID, req.AdminEmail)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Admin not found for this tenant", requestID)
			return
		}
		slog.Error("failed to reset tenant admin password", "error", err, "tenantId", tenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to reset password", requestID)
		return
	}

	response.Success(w, http.StatusOK, resetPasswordResponse{
		AdminEmail:        strings.ToLower(req.AdminEmail),
		TemporaryPassword: password,
	}, requestID)
}

// existingTenant parses the {id} parameter and checks that the tenant exists.
func (h *TenantAdminHandler) existingTenant(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	id, ok := pathID(w, r, requestID)
	if !ok {
		return uuid.Nil, false
	}

	if _, err := h.tenants.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Tenant not found", requestID)
			return uuid.Nil, false
		}
		slog.Error("failed to get tenant", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load tenant", requestID)
		return uuid.Nil, false
	}

	return id, true
}
