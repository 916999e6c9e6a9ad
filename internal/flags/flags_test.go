package flags_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/internal/flags"
	"github.com/sitedeskhq/sitedesk/pkg/models"
	"github.com/stretchr/testify/assert"
)

var (
	tenantID = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	userID   = uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
)

func flag(enabled bool) *models.FeatureFlag {
	return &models.FeatureFlag{Key: "qc_module", DefaultEnabled: enabled}
}

func tenantOverride(enabled bool) *models.FlagOverride {
	id := tenantID
	return &models.FlagOverride{FlagKey: "qc_module", TenantID: &id, Enabled: enabled}
}

func userOverride(enabled bool) *models.FlagOverride {
	id := userID
	return &models.FlagOverride{FlagKey: "qc_module", UserID: &id, Enabled: enabled}
}

func TestResolveStatic_DefaultOnly(t *testing.T) {
	res := flags.ResolveStatic(flag(true), nil, tenantID, userID)
	assert.True(t, res.Enabled)
	assert.Equal(t, "default", res.Source)
}

func TestResolveStatic_TenantOverridesDefault(t *testing.T) {
	res := flags.ResolveStatic(flag(true), []*models.FlagOverride{tenantOverride(false)}, tenantID, userID)
	assert.False(t, res.Enabled)
	assert.Equal(t, "tenant", res.Source)
}

func TestResolveStatic_UserOverridesTenant(t *testing.T) {
	overrides := []*models.FlagOverride{tenantOverride(false), userOverride(true)}
	res := flags.ResolveStatic(flag(false), overrides, tenantID, userID)
	assert.True(t, res.Enabled)
	assert.Equal(t, "user", res.Source)
}

func TestResolveStatic_UserOverrideOrderIndependent(t *testing.T) {
	// User override listed before the tenant one must still win.
	overrides := []*models.FlagOverride{userOverride(true), tenantOverride(false)}
	res := flags.ResolveStatic(flag(false), overrides, tenantID, userID)
	assert.True(t, res.Enabled)
	assert.Equal(t, "user", res.Source)
}

func TestResolveStatic_OtherTenantOverrideIgnored(t *testing.T) {
	other := uuid.New()
	o := &models.FlagOverride{FlagKey: "qc_module", TenantID: &other, Enabled: false}
	res := flags.ResolveStatic(flag(true), []*models.FlagOverride{o}, tenantID, userID)
	assert.True(t, res.Enabled)
	assert.Equal(t, "default", res.Source)
}

func TestKnownModule(t *testing.T) {
	assert.True(t, flags.KnownModule("projects"))
	assert.False(t, flags.KnownModule("blueprints"))
}

func TestKnownItem(t *testing.T) {
	assert.True(t, flags.KnownItem("qc", "create_qc_plan"))
	assert.False(t, flags.KnownItem("qc", "unknown_item"))
	assert.False(t, flags.KnownItem("blueprints", "create_qc_plan"))
}
