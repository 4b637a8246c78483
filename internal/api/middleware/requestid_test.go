package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/userix/userix/internal/api/middleware"
)

func serveRequestID(header string) (captured string, w *httptest.ResponseRecorder) {
	h := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		captured = middleware.GetRequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("X-Request-ID", header)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return captured, w
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	id, w := serveRequestID("")

	_, err := uuid.Parse(id)
	assert.NoError(t, err, "generated request ID should be a valid UUID")
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))
}

func TestRequestID_UsesExistingHeader(t *testing.T) {
	id, w := serveRequestID("my-existing-request-id")

	assert.Equal(t, "my-existing-request-id", id)
	assert.Equal(t, "my-existing-request-id", w.Header().Get("X-Request-ID"))
}

func TestRequestID_ReplacesOversizedHeader(t *testing.T) {
	oversized := strings.Repeat("x", 129)

	id, _ := serveRequestID(oversized)

	assert.NotEqual(t, oversized, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	ids := make(map[string]bool)
	for range 10 {
		id, _ := serveRequestID("")
		ids[id] = true
	}
	assert.Len(t, ids, 10)
}
