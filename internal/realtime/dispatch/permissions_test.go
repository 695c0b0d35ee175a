package dispatch

import (
	"testing"

	"platewire/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func conn(user domain.UserID, role domain.Role) *domain.Connection {
	return &domain.Connection{
		ConnectionID: "conn-1",
		UserID:       user,
		Role:         role,
	}
}

func TestHasPermission(t *testing.T) {
	allowed := []domain.Role{domain.RoleWaiter, domain.RoleAdmin, domain.RoleOwner}

	for _, role := range allowed {
		assert.True(t, HasPermission(role, allowed), "%s", role)
	}
	for _, role := range []domain.Role{domain.RoleKitchen, domain.RoleBaker, domain.RoleCashier, domain.RoleCustomer} {
		assert.False(t, HasPermission(role, allowed), "%s", role)
	}
	assert.False(t, HasPermission(domain.RoleOwner, nil))
}

func TestCanActRoleMembership(t *testing.T) {
	allowed := []domain.Role{domain.RoleAdmin, domain.RoleOwner}

	assert.True(t, CanAct(conn("u1", domain.RoleAdmin), allowed, ""))
	assert.False(t, CanAct(conn("u1", domain.RoleWaiter), allowed, ""))
}

func TestCanActOwnership(t *testing.T) {
	allowed := []domain.Role{domain.RoleWaiter}

	// A customer may act on their own record.
	assert.True(t, CanAct(conn("cust-1", domain.RoleCustomer), allowed, "cust-1"))
	// But not on someone else's.
	assert.False(t, CanAct(conn("cust-1", domain.RoleCustomer), allowed, "cust-2"))
	// An empty owner id never grants access.
	assert.False(t, CanAct(conn("cust-1", domain.RoleCustomer), allowed, ""))
}
