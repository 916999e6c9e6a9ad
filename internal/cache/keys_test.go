package cache_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/internal/cache"
	"github.com/stretchr/testify/assert"
)

func TestKPIKey(t *testing.T) {
	id := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	assert.Equal(t, "kpi:aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", cache.KPIKey(&id))
	assert.Equal(t, "kpi:all", cache.KPIKey(nil))
}

func TestRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:sd_abcd1", cache.RateLimitKey("sd_abcd1"))
}

func TestExportLimitKey(t *testing.T) {
	id := uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
	assert.Equal(t, "exportlimit:bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb:projects", cache.ExportLimitKey(id, "projects"))
}
