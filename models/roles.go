package models

// Account roles, lowest to highest. A profile starts as pending and is
// promoted by an admin.
const (
	RolePending = "pending"
	RoleMember  = "member"
	RoleLeader  = "leader"
	RoleAdmin   = "admin"
)

var roleRank = map[string]int{
	RolePending: 0,
	RoleMember:  1,
	RoleLeader:  2,
	RoleAdmin:   3,
}

// RoleRank returns -1 for unknown roles.
func RoleRank(role string) int {
	rank, ok := roleRank[role]
	if !ok {
		return -1
	}
	return rank
}

func IsValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// RoleAtLeast reports whether role is known and ranks at or above min.
func RoleAtLeast(role string, min string) bool {
	rank := RoleRank(role)
	return rank >= 0 && rank >= RoleRank(min)
}
