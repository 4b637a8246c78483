package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	specpkg "github.com/userix/userix/api"
	"github.com/userix/userix/internal/api/handler"
)

func serveOpenAPI(h *handler.OpenAPIHandler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestOpenAPIHandler_ReturnsJSON(t *testing.T) {
	t.Parallel()

	h := handler.NewOpenAPIHandler([]byte(`openapi: "3.1.0"
info:
  title: Test API
  version: "1.0.0"
paths:
  /health:
    get:
      summary: Health check
`))

	w := serveOpenAPI(h)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "3.1.0", result["openapi"])
	assert.Equal(t, "Test API", result["info"].(map[string]any)["title"])
	assert.Contains(t, result["paths"], "/health")
}

func TestOpenAPIHandler_InvalidYAML(t *testing.T) {
	t.Parallel()

	w := serveOpenAPI(handler.NewOpenAPIHandler([]byte(`{{{not yaml at all}}}`)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := parseEnvelope(t, w)
	assert.Nil(t, env["data"])
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
}

func TestOpenAPIHandler_CachesConversion(t *testing.T) {
	t.Parallel()

	h := handler.NewOpenAPIHandler([]byte("openapi: \"3.1.0\"\npaths: {}\n"))

	first := serveOpenAPI(h)
	second := serveOpenAPI(h)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestOpenAPIHandler_EmbeddedDocument(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, specpkg.OpenAPISpec)

	w := serveOpenAPI(handler.NewOpenAPIHandler(specpkg.OpenAPISpec))

	require.Equal(t, http.StatusOK, w.Code)
	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "3.1.0", result["openapi"])
	assert.Equal(t, "Userix API", result["info"].(map[string]any)["title"])
}
