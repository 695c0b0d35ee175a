package dispatch

import "platewire/internal/core/domain"

// HasPermission reports whether role is a member of allowed. Stateless and
// deterministic; every mutating handler action consults this before doing
// any work.
func HasPermission(role domain.Role, allowed []domain.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// CanAct is the single authorization primitive: role membership OR record
// ownership. The owner argument is the acted-on record's owning user id;
// pass an empty id for actions with no self-service exception.
func CanAct(actor *domain.Connection, allowed []domain.Role, owner domain.UserID) bool {
	if HasPermission(actor.Role, allowed) {
		return true
	}
	return owner != "" && actor.UserID == owner
}
