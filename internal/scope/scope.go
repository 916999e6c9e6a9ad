// Package scope resolves the effective tenant for a request.
//
// Every tenant-scoped query takes the resolver's output, never a raw
// request parameter, so the own-tenant restriction cannot be bypassed by
// supplying someone else's tenant id.
package scope

import (
	"github.com/google/uuid"
	"github.com/sitedeskhq/sitedesk/pkg/models"
)

// Resolve returns the effective tenant id for the actor. nil means
// unrestricted (super admin with no tenant requested). A non-super-admin
// actor is always pinned to their own tenant; any requested value is
// silently overridden.
func Resolve(actor models.Actor, requested *uuid.UUID) *uuid.UUID {
	if actor.IsSuperAdmin() {
		return requested
	}
	id := actor.TenantID
	return &id
}
