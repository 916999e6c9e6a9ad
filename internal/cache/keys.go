package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// KPIKey caches a tenant's dashboard KPI snapshot. The nil-tenant (super
// admin, all tenants) snapshot uses the literal "all".
func KPIKey(tenantID *uuid.UUID) string {
	if tenantID == nil {
		return "kpi:all"
	}
	return fmt.Sprintf("kpi:%s", tenantID)
}

// RateLimitKey counts requests per API key prefix in the current window.
func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

// ExportLimitKey counts export requests per actor in the current window.
func ExportLimitKey(userID uuid.UUID, entity string) string {
	return fmt.Sprintf("exportlimit:%s:%s", userID, entity)
}
