package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/userix/userix/internal/api/middleware"
	"github.com/userix/userix/internal/api/response"
	"github.com/userix/userix/internal/api/validation"
	"github.com/userix/userix/internal/student"
	"github.com/userix/userix/internal/teacher"
	"github.com/userix/userix/internal/tenant"
)

const teacherNumberAttempts = 3

type teacherRequest struct {
	FirstName  *string   `json:"firstName"`
	LastName   *string   `json:"lastName"`
	Email      *string   `json:"email"`
	Phone      *string   `json:"phone"`
	Department *string   `json:"department"`
	Subjects   *[]string `json:"subjects"`
	IsActive   *bool     `json:"isActive"`
}

func (r teacherRequest) validationInput() validation.TeacherRequest {
	in := validation.TeacherRequest{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Phone:      r.Phone,
		Department: r.Department,
	}
	if r.Subjects != nil {
		in.Subjects = *r.Subjects
	}
	return in
}

type teacherResponse struct {
	ID            string   `json:"id"`
	TenantID      string   `json:"tenantId"`
	TeacherNumber string   `json:"teacherNumber"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Email         *string  `json:"email"`
	Phone         *string  `json:"phone"`
	Department    *string  `json:"department"`
	Subjects      []string `json:"subjects"`
	IsActive      bool     `json:"isActive"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

func toTeacherResponse(t *teacher.Teacher) teacherResponse {
	subjects := t.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return teacherResponse{
		ID:            t.ID.String(),
		TenantID:      t.TenantID.String(),
		TeacherNumber: t.TeacherNumber,
		FirstName:     t.FirstName,
		LastName:      t.LastName,
		Email:         t.Email,
		Phone:         t.Phone,
		Department:    t.Department,
		Subjects:      subjects,
		IsActive:      t.IsActive,
		CreatedAt:     formatTime(t.CreatedAt),
		UpdatedAt:     formatTime(t.UpdatedAt),
	}
}

// TeacherHandler handles teacher endpoints for the caller's tenant.
type TeacherHandler struct {
	teachers teacher.Repository
	students student.Repository
	tenants  tenant.Repository
	now      func() time.Time
}

// NewTeacherHandler creates a new TeacherHandler.
func NewTeacherHandler(teachers teacher.Repository, students student.Repository, tenants tenant.Repository) *TeacherHandler {
	return &TeacherHandler{
		teachers: teachers,
		students: students,
		tenants:  tenants,
		now:      time.Now,
	}
}

// Create handles POST /teachers.
func (h *TeacherHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}

	var req teacherRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if fieldErrors := validation.ValidateCreateTeacherRequest(req.validationInput()); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if !checkCapacity(w, r, h.tenants, tenantID, capacityLimit{
		noun:  "teacher",
		code:  "TEACHER_LIMIT_REACHED",
		limit: func(s tenant.Settings) int { return s.MaxTeachers },
		count: h.teachers.CountByTenant,
	}, requestID) {
		return
	}

	t := &teacher.Teacher{
		TenantID:   tenantID,
		FirstName:  strings.TrimSpace(*req.FirstName),
		LastName:   strings.TrimSpace(*req.LastName),
		Email:      lowerOrNil(req.Email),
		Phone:      trimmedOrNil(req.Phone),
		Department: trimmedOrNil(req.Department),
		Subjects:   trimAll(req.Subjects),
	}

	if err := h.createWithNumber(r.Context(), t); err != nil {
		if errors.Is(err, teacher.ErrUnknownTenant) {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Tenant no longer exists", requestID)
			return
		}
		slog.Error("failed to create teacher", "error", err, "tenantId", tenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create teacher", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toTeacherResponse(t), requestID)
}

// List handles GET /teachers. Supports ?department=, ?isActive= and ?search=.
func (h *TeacherHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := teacher.ListFilter{
		Department: strings.TrimSpace(q.Get("department")),
		Search:     strings.TrimSpace(q.Get("search")),
	}
	if raw := q.Get("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "isActive", Message: "isActive must be true or false"}}, requestID)
			return
		}
		filter.IsActive = &active
	}

	teachers, err := h.teachers.List(r.Context(), tenantID, filter)
	if err != nil {
		slog.Error("failed to list teachers", "error", err, "tenantId", tenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list teachers", requestID)
		return
	}

	items := make([]teacherResponse, 0, len(teachers))
	for i := range teachers {
		items = append(items, toTeacherResponse(&teachers[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// GetByID handles GET /teachers/{id}.
func (h *TeacherHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	t, err := h.teachers.GetByID(r.Context(), tenantID, id)
	if err != nil {
		writeTeacherError(w, err, id, "get", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTeacherResponse(t), requestID)
}

// Update handles PATCH /teachers/{id}.
func (h *TeacherHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req teacherRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if fieldErrors := validation.ValidateUpdateTeacherRequest(req.validationInput()); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	fields := teacher.UpdateFields{
		FirstName:  trimmedOrNil(req.FirstName),
		LastName:   trimmedOrNil(req.LastName),
		Email:      lowerOrNil(req.Email),
		Phone:      trimmedOrNil(req.Phone),
		Department: trimmedOrNil(req.Department),
		IsActive:   req.IsActive,
	}
	if req.Subjects != nil {
		subjects := trimAll(req.Subjects)
		fields.Subjects = &subjects
	}

	t, err := h.teachers.Update(r.Context(), tenantID, id, fields)
	if err != nil {
		writeTeacherError(w, err, id, "update", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTeacherResponse(t), requestID)
}

// Delete handles DELETE /teachers/{id}. Assigned students keep their record
// with the teacher reference cleared.
func (h *TeacherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.teachers.Delete(r.Context(), tenantID, id); err != nil {
		writeTeacherError(w, err, id, "delete", requestID)
		return
	}

	response.NoContent(w)
}

// Students handles GET /teachers/{id}/students.
func (h *TeacherHandler) Students(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if _, err := h.teachers.GetByID(r.Context(), tenantID, id); err != nil {
		writeTeacherError(w, err, id, "get", requestID)
		return
	}

	students, err := h.students.List(r.Context(), tenantID, student.ListFilter{TeacherID: &id})
	if err != nil {
		slog.Error("failed to list teacher students", "error", err, "teacherId", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list students", requestID)
		return
	}

	items := make([]studentResponse, 0, len(students))
	for i := range students {
		items = append(items, toStudentResponse(&students[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

func (h *TeacherHandler) createWithNumber(ctx context.Context, t *teacher.Teacher) error {
	var err error
	for range teacherNumberAttempts {
		t.TeacherNumber, err = teacher.NewTeacherNumber(h.now())
		if err != nil {
			return err
		}
		err = h.teachers.Create(ctx, t)
		if !errors.Is(err, teacher.ErrDuplicateTeacherNumber) {
			return err
		}
	}
	return err
}

func writeTeacherError(w http.ResponseWriter, err error, id uuid.UUID, action, requestID string) {
	if errors.Is(err, teacher.ErrTeacherNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Teacher not found", requestID)
		return
	}
	slog.Error("failed to "+action+" teacher", "error", err, "id", id)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action+" teacher", requestID)
}

func lowerOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	return &v
}

func trimAll(values *[]string) []string {
	out := []string{}
	if values == nil {
		return out
	}
	for _, v := range *values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
