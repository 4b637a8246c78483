package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/userix/userix/internal/api/middleware"
	"github.com/userix/userix/internal/api/response"
	"github.com/userix/userix/internal/api/validation"
	"github.com/userix/userix/internal/class"
	"github.com/userix/userix/internal/student"
	"github.com/userix/userix/internal/teacher"
	"github.com/userix/userix/internal/tenant"
)

// studentNumberAttempts bounds retries when a generated student number collides.
const studentNumberAttempts = 3

type studentRequest struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Email         *string `json:"email"`
	IPadCode      *string `json:"ipadCode"`
	ClassID       *string `json:"classId"`
	ClassAddition *string `json:"classAddition"`
	TeacherID     *string `json:"teacherId"`
}

func (r studentRequest) validationInput() validation.StudentRequest {
	return validation.StudentRequest{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		IPadCode:      r.IPadCode,
		ClassID:       r.ClassID,
		ClassAddition: r.ClassAddition,
		TeacherID:     r.TeacherID,
	}
}

type studentResponse struct {
	ID            string  `json:"id"`
	TenantID      string  `json:"tenantId"`
	StudentNumber string  `json:"studentNumber"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         string  `json:"email"`
	IPadCode      string  `json:"ipadCode"`
	ClassID       *string `json:"classId"`
	ClassAddition *string `json:"classAddition"`
	TeacherID     *string `json:"teacherId"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func toStudentResponse(s *student.Student) studentResponse {
	resp := studentResponse{
		ID:            s.ID.String(),
		TenantID:      s.TenantID.String(),
		StudentNumber: s.StudentNumber,
		FirstName:     s.FirstName,
		LastName:      s.LastName,
		Email:         s.Email,
		IPadCode:      s.IPadCode,
		ClassAddition: s.ClassAddition,
		CreatedAt:     formatTime(s.CreatedAt),
		UpdatedAt:     formatTime(s.UpdatedAt),
	}
	if s.ClassID != nil {
		cid := s.ClassID.String()
		resp.ClassID = &cid
	}
	if s.TeacherID != nil {
		tid := s.TeacherID.String()
		resp.TeacherID = &tid
	}
	return resp
}

// StudentHandler handles student CRUD endpoints for the caller's tenant.
type StudentHandler struct {
	students student.Repository
	classes  class.Repository
	teachers teacher.Repository
	tenants  tenant.Repository
	now      func() time.Time
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(students student.Repository, classes class.Repository, teachers teacher.Repository, tenants tenant.Repository) *StudentHandler {
	return &StudentHandler{
		students: students,
		classes:  classes,
		teachers: teachers,
		tenants:  tenants,
		now:      time.Now,
	}
}

// Create handles POST /students.
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}

	var req studentRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if fieldErrors := validation.ValidateCreateStudentRequest(req.validationInput()); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	classID, ok := h.resolveClass(w, r, tenantID, req.ClassID, requestID)
	if !ok {
		return
	}

	teacherID, ok := h.resolveTeacher(w, r, tenantID, req.TeacherID, requestID)
	if !ok {
		return
	}

	if !checkCapacity(w, r, h.tenants, tenantID, capacityLimit{
		noun:  "student",
		code:  "STUDENT_LIMIT_REACHED",
		limit: func(s tenant.Settings) int { return s.MaxStudents },
		count: h.students.CountByTenant,
	}, requestID) {
		return
	}

	s := &student.Student{
		TenantID:      tenantID,
		FirstName:     strings.TrimSpace(*req.FirstName),
		LastName:      strings.TrimSpace(*req.LastName),
		Email:         strings.ToLower(strings.TrimSpace(*req.Email)),
		ClassID:       classID,
		ClassAddition: upperOrNil(req.ClassAddition),
		TeacherID:     teacherID,
	}

	if req.IPadCode != nil {
		s.IPadCode = *req.IPadCode
	} else {
		code, err := student.NewIPadCode()
		if err != nil {
			slog.Error("failed to generate ipad code", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create student", requestID)
			return
		}
		s.IPadCode = code
	}

	if err := h.createWithNumber(r.Context(), s); err != nil {
		if writeReferenceError(w, err, requestID) {
			return
		}
		slog.Error("failed to create student", "error", err, "tenantId", tenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create student", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toStudentResponse(s), requestID)
}

// List handles GET /students. Supports ?classId=, ?teacherId= and ?search= filters.
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}

	filter := student.ListFilter{Search: strings.TrimSpace(r.URL.Query().Get("search"))}
	if raw := r.URL.Query().Get("classId"); raw != "" {
		classID, err := uuid.Parse(raw)
		if err != nil {
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "classId", Message: "classId must be a valid UUID"}}, requestID)
			return
		}
		filter.ClassID = &classID
	}
	if raw := r.URL.Query().Get("teacherId"); raw != "" {
		teacherID, err := uuid.Parse(raw)
		if err != nil {
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "teacherId", Message: "teacherId must be a valid UUID"}}, requestID)
			return
		}
		filter.TeacherID = &teacherID
	}

	students, err := h.students.List(r.Context(), tenantID, filter)
	if err != nil {
		slog.Error("failed to list students", "error", err, "tenantId", tenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list students", requestID)
		return
	}

	items := make([]studentResponse, 0, len(students))
	for i := range students {
		items = append(items, toStudentResponse(&students[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// GetByID handles GET /students/{id}.
func (h *StudentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	s, err := h.students.GetByID(r.Context(), tenantID, id)
	if err != nil {
		writeStudentError(w, err, id, "get", requestID)
		return
	}

	response.Success(w, http.StatusOK, toStudentResponse(s), requestID)
}

// Update handles PATCH /students/{id}.
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	var req studentRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if fieldErrors := validation.ValidateUpdateStudentRequest(req.validationInput()); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	classID, ok := h.resolveClass(w, r, tenantID, req.ClassID, requestID)
	if !ok {
		return
	}
	teacherID, ok := h.resolveTeacher(w, r, tenantID, req.TeacherID, requestID)
	if !ok {
		return
	}

	fields := student.UpdateFields{
		FirstName:     trimmedOrNil(req.FirstName),
		LastName:      trimmedOrNil(req.LastName),
		IPadCode:      req.IPadCode,
		ClassID:       classID,
		ClassAddition: upperOrNil(req.ClassAddition),
		TeacherID:     teacherID,
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		fields.Email = &email
	}

	s, err := h.students.Update(r.Context(), tenantID, id, fields)
	if err != nil {
		if writeReferenceError(w, err, requestID) {
			return
		}
		writeStudentError(w, err, id, "update", requestID)
		return
	}

	response.Success(w, http.StatusOK, toStudentResponse(s), requestID)
}

// Delete handles DELETE /students/{id}.
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, ok := callerTenant(w, r, requestID)
	if !ok {
		return
	}
	id, ok := pathID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.students.Delete(r.Context(), tenantID, id); err != nil {
		writeStudentError(w, err, id, "delete", requestID)
		return
	}

	response.NoContent(w)
}

// resolveClass checks that a referenced class belongs to the caller's tenant.
// A nil raw value yields a nil class ID.
func (h *StudentHandler) resolveClass(w http.ResponseWriter, r *http.Request, tenantID uuid.UUID, raw *string, requestID string) (*uuid.UUID, bool) {
	if raw == nil {
		return nil, true
	}

	// Already validated as a UUID.
	classID := uuid.MustParse(*raw)

	if _, err := h.classes.GetByID(r.Context(), tenantID, classID); err != nil {
		if errors.Is(err, class.ErrClassNotFound) {
			response.Err(w, http.StatusBadRequest, "INVALID_CLASS", "Class does not exist", requestID)
			return nil, false
		}
		slog.Error("failed to get class", "error", err, "classId", classID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load class", requestID)
		return nil, false
	}

	return &classID, true
}

// resolveTeacher checks that a referenced teacher belongs to the caller's
// tenant. A nil raw value yields a nil teacher ID.
func (h *StudentHandler) resolveTeacher(w http.ResponseWriter, r *http.Request, tenantID uuid.UUID, raw *string, requestID string) (*uuid.UUID, bool) {
	if raw == nil {
		return nil, true
	}

	teacherID := uuid.MustParse(*raw)

	if _, err := h.teachers.GetByID(r.Context(), tenantID, teacherID); err != nil {
		if errors.Is(err, teacher.ErrTeacherNotFound) {
			response.Err(w, http.StatusBadRequest, "INVALID_TEACHER", "Teacher does not exist", requestID)
			return nil, false
		}
		slog.Error("failed to get teacher", "error", err, "teacherId", teacherID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load teacher", requestID)
		return nil, false
	}

	return &teacherID, true
}

func (h *StudentHandler) createWithNumber(ctx context.Context, s *student.Student) error {
	var err error
	for range studentNumberAttempts {
		s.StudentNumber, err = student.NewStudentNumber(h.now())
		if err != nil {
			return err
		}
		err = h.students.Create(ctx, s)
		if !errors.Is(err, student.ErrDuplicateStudentNumber) {
			return err
		}
	}
	return err
}

// writeReferenceError handles foreign keys that vanished between the lookup
// and the write. It reports whether a response was written.
func writeReferenceError(w http.ResponseWriter, err error, requestID string) bool {
	switch {
	case errors.Is(err, student.ErrUnknownClass):
		response.Err(w, http.StatusBadRequest, "INVALID_CLASS", "Class does not exist", requestID)
	case errors.Is(err, student.ErrUnknownTeacher):
		response.Err(w, http.StatusBadRequest, "INVALID_TEACHER", "Teacher does not exist", requestID)
	case errors.Is(err, student.ErrUnknownTenant):
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Tenant no longer exists", requestID)
	default:
		return false
	}
	return true
}

func writeStudentError(w http.ResponseWriter, err error, id uuid.UUID, action, requestID string) {
	if errors.Is(err, student.ErrStudentNotFound) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Student not found", requestID)
		return
	}
	slog.Error("failed to "+action+" student", "error", err, "id", id)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to "+action+" student", requestID)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func upperOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(*s)
	return &v
}
