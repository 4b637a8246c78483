package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/userix/userix/internal/api/response"
	"github.com/userix/userix/internal/tenant"
)

// capacityLimit describes one per-tenant member limit.
type capacityLimit struct {
	noun  string
	code  string
	limit func(tenant.Settings) int
	count func(ctx context.Context, tenantID uuid.UUID) (int, error)
}

// checkCapacity rejects the request with 409 when the tenant is at the given
// limit. The check is not atomic with the insert.
func checkCapacity(w http.ResponseWriter, r *http.Request, tenants tenant.Repository, tenantID uuid.UUID, c capacityLimit, requestID string) bool {
	failed := "Failed to create " + c.noun

	t, err := tenants.GetByID(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Tenant no longer exists", requestID)
			return false
		}
		slog.Error("failed to get tenant", "error", err, "tenantId", tenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", failed, requestID)
		return false
	}

	count, err := c.count(r.Context(), tenantID)
	if err != nil {
		slog.Error("failed to count "+c.noun+"s", "error", err, "tenantId", tenantID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", failed, requestID)
		return false
	}

	if limit := c.limit(t.Settings); count >= limit {
		response.Err(w, http.StatusConflict, c.code,
			fmt.Sprintf("Tenant has reached its limit of %d %ss", limit, c.noun), requestID)
		return false
	}

	return true
}
