package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userix/userix/internal/api/response"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Success(rec, http.StatusCreated, map[string]string{"name": "Beispiel"}, "req-1")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Nil(t, body["error"])
	assert.Equal(t, "Beispiel", body["data"].(map[string]any)["name"])

	meta := body["meta"].(map[string]any)
	assert.Equal(t, "req-1", meta["requestId"])
	_, err := time.Parse(time.RFC3339, meta["timestamp"].(string))
	assert.NoError(t, err)
}

func TestSuccessList(t *testing.T) {
	rec := httptest.NewRecorder()
	response.SuccessList(rec, http.StatusOK, []string{"a", "b"}, 2, "req-2")

	body := decode(t, rec)
	assert.Len(t, body["data"], 2)
	assert.Equal(t, float64(2), body["meta"].(map[string]any)["total"])
}

func TestErr_GeneratesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Err(rec, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode(t, rec)
	assert.Nil(t, body["data"])

	errObj := body["error"].(map[string]any)
	assert.Equal(t, "INVALID_CREDENTIALS", errObj["code"])
	assert.NotContains(t, errObj, "details")
	assert.NotEmpty(t, body["meta"].(map[string]any)["requestId"])
}

func TestErrWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	response.ErrWithDetails(rec, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
		[]map[string]string{{"field": "email", "message": "must be a valid email address"}}, "req-3")

	body := decode(t, rec)
	details := body["error"].(map[string]any)["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "email", details[0].(map[string]any)["field"])
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	response.NoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
