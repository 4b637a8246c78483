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
	"github.com/userix/userix/internal/class"
)

type classRequest struct {
	Name        *string `json:"name"`
	Year        *int    `json:"year"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

type classResponse struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenantId"`
	Name        string  `json:"name"`
	Year        int     `json:"year"`
	Description *string `json:"description"`
	IsActive    bool    `json:"isActive"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toClassResponse(c *class.Class) classResponse {
	return classResponse{
		ID:          c.ID.String(),
		TenantID:    c.TenantID.String(),
		Name:        c.Name,
		Year:        c.Year,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
}

// ClassHandler handles class CRUD endpoints for the caller's tenant.
type ClassHandler struct {
	repo class.Repository
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(repo class.Repository) *ClassHandler {
	return &ClassHandler{repo: repo}
}

// Create handles POST /classes.
func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}

	var req classRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	fieldErrors := validation.ValidateCreateClassRequest(validation.ClassRequest{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	c := &class.Class{
		TenantID:    tenantID,
		Name:        strings.TrimSpace(*req.Name),
		Year:        *req.Year,
		Description: req.Description,
	}

	if err := h.repo.Create(r.Context(), c); err != nil {
		if errors.Is(err, class.ErrDuplicateClass) {
			response.Err(w, http.StatusConflict, "DUPLICATE_CLASS", "A class with this name and year already exists", requestID)
			return
		}
		if errors.Is(err, class.ErrUnknownTenant) {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Tenant no longer exists", requestID)
			return
		}
		slog.Error("failed to create class", "error", err, "tenantId", tenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create class", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toClassResponse(c), requestID)
}

// List handles GET /classes.
func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}

	classes, err := h.repo.List(r.Context(), tenantID)
	if err != nil {
		slog.Error("failed to list classes", "error", err, "tenantId", tenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list classes", requestID)
		return
	}

	items := make([]classResponse, 0, len(classes))
	for i := range classes {
		items = append(items, toClassResponse(&classes[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// GetByID handles GET /classes/{id}.
func (h *ClassHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	c, err := h.repo.GetByID(r.Context(), tenantID, id)
	if err != nil {
		writeClassError(w, err, id, "get", requestID)
		return
	}

	response.Success(w, http.StatusOK, toClassResponse(c), requestID)
}

// Update handles PATCH /classes/{id}.
func (h *ClassHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req classRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	fieldErrors := validation.ValidateUpdateClassRequest(validation.ClassRequest{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	fields := class.UpdateFields{
		Year:        req.Year,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		fields.Name = &name
	}

	c, err := h.repo.Update(r.Context(), tenantID, id, fields)
	if err != nil {
		if errors.Is(err, class.ErrDuplicateClass) {
			response.Err(w, http.StatusConflict, "DUPLICATE_CLASS", "A class with this name and year already exists", requestID)
			return
		}
		writeClassError(w, err, id, "update", requestID)
		return
	}

	response.Success(w, http.StatusOK, toClassResponse(c), requestID)
}

// Delete handles DELETE /classes/{id}.
func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), tenantID, id); err != nil {
		writeClassError(w, err, id, "delete", requestID)
		return
	}

	response.NoContent(w)
}

func writeClassError(w http.ResponseWriter, err error, id uuid.UUID, action, requestID string) {
	if errors.Is(err, class.ErrClassNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Class not found", requestID)
		return
	}
	slog.Error("failed to "+action+" class", "error", err, "id", id)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action+" class", requestID)
}

// callerTenant returns the tenant of the authenticated admin. Requests without
// a tenant-bound identity get 403.
func callerTenant(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Tenant administrator access required", requestID)
		return uuid.Nil, false
	}
	return tenantID, true
}
