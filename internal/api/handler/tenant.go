package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/userix/userix/internal/api/middleware"
	"github.com/userix/userix/internal/api/response"
	"github.com/userix/userix/internal/api/validation"
	"github.com/userix/userix/internal/tenant"
)

type settingsBody struct {
	MaxStudents *int     `json:"maxStudents"`
	MaxTeachers *int     `json:"maxTeachers"`
	Features    []string `json:"features"`
}

type createTenantRequest struct {
	Name        string   `json:"name"`
	Subdomain   string   `json:"subdomain"`
	MaxStudents *int     `json:"maxStudents"`
	MaxTeachers *int     `json:"maxTeachers"`
	Features    []string `json:"features"`
}

type updateTenantRequest struct {
	Name     *string       `json:"name"`
	Settings *settingsBody `json:"settings"`
}

type tenantStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

type settingsResponse struct {
	MaxStudents int      `json:"maxStudents"`
	MaxTeachers int      `json:"maxTeachers"`
	Features    []string `json:"features"`
}

type tenantResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Subdomain    string           `json:"subdomain"`
	DatabaseName string           `json:"databaseName"`
	IsActive     bool             `json:"isActive"`
	Settings     settingsResponse `json:"settings"`
	CreatedAt    string           `json:"createdAt"`
	UpdatedAt    string           `json:"updatedAt"`
}

type tenantCounts struct {
	Admins   int `json:"admins"`
	Students int `json:"students"`
	Teachers int `json:"teachers"`
	Classes  int `json:"classes"`
}

type tenantSummaryResponse struct {
	tenantResponse
	Stats tenantCounts `json:"stats"`
}

type statsResponse struct {
	Tenants struct {
		Total    int `json:"total"`
		Active   int `json:"active"`
		Inactive int `json:"inactive"`
	} `json:"tenants"`
	Admins   int `json:"admins"`
	Students int `json:"students"`
	Teachers int `json:"teachers"`
	Classes  int `json:"classes"`
}

func toTenantResponse(t *tenant.Tenant) tenantResponse {
	features := t.Settings.Features
	if features == nil {
		features = []string{}
	}
	return tenantResponse{
		ID:           t.ID.String(),
		Name:         t.Name,
		Subdomain:    t.Subdomain,
		DatabaseName: t.DatabaseName,
		IsActive:     t.IsActive,
		Settings: settingsResponse{
			MaxStudents: t.Settings.MaxStudents,
			MaxTeachers: t.Settings.MaxTeachers,
			Features:    features,
		},
		CreatedAt: formatTime(t.CreatedAt),
		UpdatedAt: formatTime(t.UpdatedAt),
	}
}

// TenantHandler handles tenant administration endpoints.
type TenantHandler struct {
	repo tenant.Repository
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(repo tenant.Repository) *TenantHandler {
	return &TenantHandler{repo: repo}
}

// Create handles POST /admin/tenants.
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req createTenantRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}
	req.Subdomain = strings.TrimSpace(req.Subdomain)

	fieldErrors := validation.ValidateCreateTenantRequest(validation.CreateTenantRequest{
		Name:        req.Name,
		Subdomain:   req.Subdomain,
		MaxStudents: req.MaxStudents,
		MaxTeachers: req.MaxTeachers,
		Features:    req.Features,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	t := &tenant.Tenant{
		Name:      strings.TrimSpace(req.Name),
		Subdomain: req.Subdomain,
		Settings:  tenant.Settings{Features: req.Features},
	}
	if req.MaxStudents != nil {
		t.Settings.MaxStudents = *req.MaxStudents
	}
	if req.MaxTeachers != nil {
		t.Settings.MaxTeachers = *req.MaxTeachers
	}

	if err := h.repo.Create(r.Context(), t); err != nil {
		if errors.Is(err, tenant.ErrDuplicateSubdomain) {
			response.Err(w, http.StatusConflict, "DUPLICATE_SUBDOMAIN", fmt.Sprintf("A tenant with subdomain %q already exists", req.Subdomain), requestID)
			return
		}
		slog.Error("failed to create tenant", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create tenant", requestID)
		return
	}

	slog.Info("tenant created", "tenantId", t.ID, "subdomain", t.Subdomain)
	response.Success(w, http.StatusCreated, toTenantResponse(t), requestID)
}

// List handles GET /admin/tenants.
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenants, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("failed to list tenants", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tenants", requestID)
		return
	}

	items := make([]tenantSummaryResponse, 0, len(tenants))
	for i := range tenants {
		items = append(items, tenantSummaryResponse{
			tenantResponse: toTenantResponse(&tenants[i].Tenant),
			Stats: tenantCounts{
				Admins:   tenants[i].AdminCount,
				Students: tenants[i].StudentCount,
				Teachers: tenants[i].TeacherCount,
				Classes:  tenants[i].ClassCount,
			},
		})
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// GetByID handles GET /admin/tenants/{id}.
func (h *TenantHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	t, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err, id, "get", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTenantResponse(t), requestID)
}

// Update handles PATCH /admin/tenants/{id}.
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req updateTenantRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	vr := validation.UpdateTenantRequest{Name: req.Name}
	if req.Settings != nil {
		vr.Settings = &validation.SettingsInput{
			MaxStudents: req.Settings.MaxStudents,
			MaxTeachers: req.Settings.MaxTeachers,
			Features:    req.Settings.Features,
		}
	}
	if fieldErrors := validation.ValidateUpdateTenantRequest(vr); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	var fields tenant.UpdateFields
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		fields.Name = &name
	}
	if req.Settings != nil {
		features := req.Settings.Features
		if features == nil {
			features = []string{}
		}
		fields.Settings = &tenant.Settings{
			MaxStudents: *req.Settings.MaxStudents,
			MaxTeachers: *req.Settings.MaxTeachers,
			Features:    features,
		}
	}

	t, err := h.repo.Update(r.Context(), id, fields)
	if err != nil {
		h.writeLookupError(w, err, id, "update", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTenantResponse(t), requestID)
}

// UpdateStatus handles PATCH /admin/tenants/{id}/status.
func (h *TenantHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req tenantStatusRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if fieldErrors := validation.ValidateTenantStatusRequest(validation.TenantStatusRequest{IsActive: req.IsActive}); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	t, err := h.repo.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		h.writeLookupError(w, err, id, "update", requestID)
		return
	}

	slog.Info("tenant status changed", "tenantId", id, "isActive", t.IsActive)
	response.Success(w, http.StatusOK, toTenantResponse(t), requestID)
}

// Delete handles DELETE /admin/tenants/{id}.
func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeLookupError(w, err, id, "delete", requestID)
		return
	}

	slog.Info("tenant deleted", "tenantId", id)
	response.NoContent(w)
}

// Stats handles GET /admin/stats.
func (h *TenantHandler) Stats(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	s, err := h.repo.Stats(r.Context())
	if err != nil {
		slog.Error("failed to load stats", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load statistics", requestID)
		return
	}

	var resp statsResponse
	resp.Tenants.Total = s.Tenants
	resp.Tenants.Active = s.ActiveTenants
	resp.Tenants.Inactive = s.InactiveTenants
	resp.Admins = s.Admins
	resp.Students = s.Students
	resp.Teachers = s.Teachers
	resp.Classes = s.Classes

	response.Success(w, http.StatusOK, resp, requestID)
}

func (h *TenantHandler) writeLookupError(w http.ResponseWriter, err error, id uuid.UUID, action, requestID string) {
	if errors.Is(err, tenant.ErrTenantNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Tenant not found", requestID)
		return
	}
	slog.Error("failed to "+action+" tenant", "error", err, "id", id)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action+" tenant", requestID)
}
