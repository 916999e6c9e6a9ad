package scope_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/internal/scope"
	"github.com/sitedeskhq/sitedesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_SuperAdminPassesThroughRequested(t *testing.T) {
	actor := models.Actor{TenantID: uuid.New(), Role: models.RoleSuperAdmin}
	requested := uuid.New()

	got := scope.Resolve(actor, &requested)
	require.NotNil(t, got)
	assert.Equal(t, requested, *got)
}

func TestResolve_SuperAdminNoRequestMeansUnrestricted(t *testing.T) {
	actor := models.Actor{TenantID: uuid.New(), Role: models.RoleSuperAdmin}
	assert.Nil(t, scope.Resolve(actor, nil))
}

func TestResolve_ScopedAdminOverridesRequested(t *testing.T) {
	own := uuid.New()
	other := uuid.New()
	actor := models.Actor{TenantID: own, Role: models.RoleOrgAdmin}

	got := scope.Resolve(actor, &other)
	require.NotNil(t, got)
	assert.Equal(t, own, *got, "requested tenant must be silently overridden")
}

func TestResolve_ScopedAdminWithoutRequestGetsOwnTenant(t *testing.T) {
	own := uuid.New()
	actor := models.Actor{TenantID: own, Role: models.RoleMember}

	got := scope.Resolve(actor, nil)
	require.NotNil(t, got)
	assert.Equal(t, own, *got)
}
