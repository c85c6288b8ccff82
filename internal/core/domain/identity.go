package domain

// Role represents the staff role carried by a verified credential.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
	RoleKitchen Role = "KITCHEN"
	RoleWaiter  Role = "WAITER"
)

// Valid reports whether the role is one of the known staff roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleKitchen, RoleWaiter:
		return true
	}
	return false
}

// Identity is the authenticated principal attached to a connection.
// It is derived once from a verified credential and never changes for
// the lifetime of the connection. BranchID is empty for identities that
// are not scoped to a single branch (e.g. admins).
type Identity struct {
	ID       string
	Name     string
	Role     Role
	BranchID string
}

// Rooms returns the multicast rooms this identity belongs to: its user
// room, its role room, and (when branch-scoped) its branch room.
func (i Identity) Rooms() []string {
	rooms := []string{UserRoom(i.ID), RoleRoom(i.Role)}
	if i.BranchID != "" {
		rooms = append(rooms, BranchRoom(i.BranchID))
	}
	return rooms
}
