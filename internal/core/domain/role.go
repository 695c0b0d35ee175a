package domain

// Role is the job function attached to a connection's identity. It is
// established by the external auth step and trusted for every permission
// check afterwards.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleWaiter   Role = "waiter"
	RoleKitchen  Role = "kitchen"
	RoleBaker    Role = "baker"
	RoleCashier  Role = "cashier"
	RoleCustomer Role = "customer"
)

// StaffRoles lists every role that belongs to the all_staff room.
var StaffRoles = []Role{RoleOwner, RoleAdmin, RoleWaiter, RoleKitchen, RoleBaker, RoleCashier}

// IsStaff reports whether the role is a staff role (everything but customer).
func (r Role) IsStaff() bool {
	for _, s := range StaffRoles {
		if r == s {
			return true
		}
	}
	return false
}

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleWaiter, RoleKitchen, RoleBaker, RoleCashier, RoleCustomer:
		return true
	}
	return false
}

// RoomsForRole returns the implicit room memberships derived from a role at
// connect time. Customers hold no implicit memberships; they are addressed
// directly by user id.
func RoomsForRole(r Role) []RoomName {
	if !r.IsStaff() {
		return nil
	}

	rooms := []RoomName{RoomAllStaff, RoomName(r)}
	switch r {
	case RoleOwner, RoleAdmin:
		rooms = append(rooms, RoomAdmin, RoomOrders, RoomTables, RoomInventory)
	case RoleWaiter, RoleCashier:
		rooms = append(rooms, RoomOrders, RoomTables)
	case RoleKitchen:
		rooms = append(rooms, RoomOrders, RoomInventory)
	case RoleBaker:
		rooms = append(rooms, RoomKitchen, RoomInventory)
	}
	return rooms
}
