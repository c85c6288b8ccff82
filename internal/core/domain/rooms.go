package domain

// Rooms are implicit multicast groups named after the attribute their
// members share. They are never created or destroyed explicitly; a room
// exists exactly as long as it has members.

// BranchRoom returns the room name for all staff of one branch.
func BranchRoom(branchID string) string {
	return "branch:" + branchID
}

// RoleRoom returns the room name for all staff with one role.
func RoleRoom(role Role) string {
	return "role:" + string(role)
}

// UserRoom returns the room name addressing a single user's connections.
func UserRoom(userID string) string {
	return "user:" + userID
}
