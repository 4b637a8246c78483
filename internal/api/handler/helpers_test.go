package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/userix/userix/internal/api/middleware"
	"github.com/userix/userix/internal/auth"
	"github.com/userix/userix/internal/class"
	"github.com/userix/userix/internal/student"
	"github.com/userix/userix/internal/teacher"
	"github.com/userix/userix/internal/tenant"
)

const testSecret = "handler-test-secret"

// --- Mock Tenant Repository ---

type mockTenantRepo struct {
	createFn         func(ctx context.Context, t *tenant.Tenant) error
	getByIDFn        func(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	getBySubdomainFn func(ctx context.Context, subdomain string) (*tenant.Tenant, error)
	listFn           func(ctx context.Context) ([]tenant.Summary, error)
	updateFn         func(ctx context.Context, id uuid.UUID, fields tenant.UpdateFields) (*tenant.Tenant, error)
	setActiveFn      func(ctx context.Context, id uuid.UUID, active bool) (*tenant.Tenant, error)
	deleteFn         func(ctx context.Context, id uuid.UUID) error
	statsFn          func(ctx context.Context) (*tenant.Stats, error)
}

func (m *mockTenantRepo) Create(ctx context.Context, t *tenant.Tenant) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	t.ID = uuid.New()
	t.DatabaseName = tenant.DatabaseNameFor(t.Subdomain)
	t.IsActive = true
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	return nil
}

func (m *mockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, tenant.ErrTenantNotFound
}

func (m *mockTenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	if m.getBySubdomainFn != nil {
		return m.getBySubdomainFn(ctx, subdomain)
	}
	return nil, tenant.ErrTenantNotFound
}

func (m *mockTenantRepo) List(ctx context.Context) ([]tenant.Summary, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []tenant.Summary{}, nil
}

func (m *mockTenantRepo) Update(ctx context.Context, id uuid.UUID, fields tenant.UpdateFields) (*tenant.Tenant, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return nil, tenant.ErrTenantNotFound
}

func (m *mockTenantRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*tenant.Tenant, error) {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, id, active)
	}
	return nil, tenant.ErrTenantNotFound
}

func (m *mockTenantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockTenantRepo) Stats(ctx context.Context) (*tenant.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &tenant.Stats{}, nil
}

// --- Mock Class Repository ---

type mockClassRepo struct {
	createFn  func(ctx context.Context, c *class.Class) error
	getByIDFn func(ctx context.Context, tenantID, id uuid.UUID) (*class.Class, error)
	listFn    func(ctx context.Context, tenantID uuid.UUID) ([]class.Class, error)
	updateFn  func(ctx context.Context, tenantID, id uuid.UUID, fields class.UpdateFields) (*class.Class, error)
	deleteFn  func(ctx context.Context, tenantID, id uuid.UUID) error
}

func (m *mockClassRepo) Create(ctx context.Context, c *class.Class) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	c.ID = uuid.New()
	c.IsActive = true
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	return nil
}

func (m *mockClassRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*class.Class, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, tenantID, id)
	}
	return nil, class.ErrClassNotFound
}

func (m *mockClassRepo) List(ctx context.Context, tenantID uuid.UUID) ([]class.Class, error) {
	if m.listFn != nil {
		return m.listFn(ctx, tenantID)
	}
	return []class.Class{}, nil
}

func (m *mockClassRepo) Update(ctx context.Context, tenantID, id uuid.UUID, fields class.UpdateFields) (*class.Class, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, tenantID, id, fields)
	}
	return nil, class.ErrClassNotFound
}

func (m *mockClassRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tenantID, id)
	}
	return nil
}

// --- Mock Student Repository ---

type mockStudentRepo struct {
	createFn        func(ctx context.Context, s *student.Student) error
	getByIDFn       func(ctx context.Context, tenantID, id uuid.UUID) (*student.Student, error)
	listFn          func(ctx context.Context, tenantID uuid.UUID, filter student.ListFilter) ([]student.Student, error)
	updateFn        func(ctx context.Context, tenantID, id uuid.UUID, fields student.UpdateFields) (*student.Student, error)
	deleteFn        func(ctx context.Context, tenantID, id uuid.UUID) error
	countByTenantFn func(ctx context.Context, tenantID uuid.UUID) (int, error)
}

func (m *mockStudentRepo) Create(ctx context.Context, s *student.Student) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	return nil
}

func (m *mockStudentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*student.Student, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, tenantID, id)
	}
	return nil, student.ErrStudentNotFound
}

func (m *mockStudentRepo) List(ctx context.Context, tenantID uuid.UUID, filter student.ListFilter) ([]student.Student, error) {
	if m.listFn != nil {
		return m.listFn(ctx, tenantID, filter)
	}
	return []student.Student{}, nil
}

func (m *mockStudentRepo) Update(ctx context.Context, tenantID, id uuid.UUID, fields student.UpdateFields) (*student.Student, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, tenantID, id, fields)
	}
	return nil, student.ErrStudentNotFound
}

func (m *mockStudentRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tenantID, id)
	}
	return nil
}

func (m *mockStudentRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	if m.countByTenantFn != nil {
		return m.countByTenantFn(ctx, tenantID)
	}
	return 0, nil
}

// --- Mock Teacher Repository ---

type mockTeacherRepo struct {
	createFn        func(ctx context.Context, t *teacher.Teacher) error
	getByIDFn       func(ctx context.Context, tenantID, id uuid.UUID) (*teacher.Teacher, error)
	listFn          func(ctx context.Context, tenantID uuid.UUID, filter teacher.ListFilter) ([]teacher.Teacher, error)
	updateFn        func(ctx context.Context, tenantID, id uuid.UUID, fields teacher.UpdateFields) (*teacher.Teacher, error)
	deleteFn        func(ctx context.Context, tenantID, id uuid.UUID) error
	countByTenantFn func(ctx context.Context, tenantID uuid.UUID) (int, error)
}

func (m *mockTeacherRepo) Create(ctx context.Context, t *teacher.Teacher) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	t.ID = uuid.New()
	t.IsActive = true
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	return nil
}

func (m *mockTeacherRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*teacher.Teacher, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, tenantID, id)
	}
	return nil, teacher.ErrTeacherNotFound
}

func (m *mockTeacherRepo) List(ctx context.Context, tenantID uuid.UUID, filter teacher.ListFilter) ([]teacher.Teacher, error) {
	if m.listFn != nil {
		return m.listFn(ctx, tenantID, filter)
	}
	return []teacher.Teacher{}, nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, tenantID, id uuid.UUID, fields teacher.UpdateFields) (*teacher.Teacher, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, tenantID, id, fields)
	}
	return nil, teacher.ErrTeacherNotFound
}

func (m *mockTeacherRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tenantID, id)
	}
	return nil
}

func (m *mockTeacherRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	if m.countByTenantFn != nil {
		return m.countByTenantFn(ctx, tenantID)
	}
	return 0, nil
}

// --- In-memory CredentialStore ---

type memoryStore struct {
	mu    sync.Mutex
	creds map[string]*auth.Credential
}

func newMemoryStore() *memoryStore {
	return &memoryStore{creds: make(map[string]*auth.Credential)}
}

func (m *memoryStore) Create(_ context.Context, c *auth.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Email = strings.ToLower(c.Email)
	if _, ok := m.creds[c.Email]; ok {
		return auth.ErrDuplicateEmail
	}
	c.ID = uuid.New()
	c.IsActive = true
	c.TenantActive = true
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	m.creds[c.Email] = &stored
	return nil
}

func (m *memoryStore) FindAdminByEmail(_ context.Context, email string) (*auth.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[email]
	if !ok {
		return nil, auth.ErrCredentialNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memoryStore) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]auth.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []auth.Credential{}
	for _, c := range m.creds {
		if c.TenantID != nil && *c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memoryStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.creds {
		if c.ID == id {
			c.PasswordHash = hash
			return nil
		}
	}
	return auth.ErrCredentialNotFound
}

func (m *memoryStore) CountByRole(_ context.Context, role auth.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.creds {
		if c.Role == role {
			n++
		}
	}
	return n, nil
}

// newAuthService returns a Service backed by an in-memory store with the
// default system admin already bootstrapped.
func newAuthService(t *testing.T) (*auth.Service, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: testSecret, TTL: 24 * time.Hour})
	require.NoError(t, err)

	svc := auth.NewService(store, auth.NewBcryptHasher(4), issuer)
	_, err = svc.Bootstrap(context.Background(), auth.BootstrapAdmin{
		Email:     "admin@userix.com",
		Password:  "admin123",
		FirstName: "Admin",
		LastName:  "User",
	})
	require.NoError(t, err)

	return svc, store
}

// --- Request helpers ---

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, w
}

// asIdentity attaches an authenticated identity to the request.
func asIdentity(req *http.Request, identity *auth.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func tenantAdmin(tenantID uuid.UUID) *auth.Identity {
	return &auth.Identity{
		ID:        uuid.New(),
		Email:     "head@beispielschule.de",
		FirstName: "Max",
		LastName:  "Mustermann",
		Role:      auth.RoleTenantAdmin,
		TenantID:  &tenantID,
	}
}

func systemAdmin() *auth.Identity {
	return &auth.Identity{
		ID:        uuid.New(),
		Email:     "admin@userix.com",
		FirstName: "Admin",
		LastName:  "User",
		Role:      auth.RoleSystemAdmin,
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := parseEnvelope(t, w)
	errObj, ok := env["error"].(map[string]any)
	require.True(t, ok, "expected error object in response")
	return errObj["code"].(string)
}

func sampleTenant(id uuid.UUID, maxStudents int) *tenant.Tenant {
	now := time.Now().UTC()
	return &tenant.Tenant{
		ID:           id,
		Name:         "Beispiel Grundschule",
		Subdomain:    "beispielschule",
		DatabaseName: "userix_tenant_beispielschule",
		IsActive:     true,
		Settings:     tenant.Settings{MaxStudents: maxStudents, MaxTeachers: 100, Features: []string{}},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
