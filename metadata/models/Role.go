package models

// Role names a family-scoped position that carries a fixed base permission
// set. Roles are compared by privilege rank when a requirement asks for a
// minimum role rather than an exact one.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleParent    Role = "parent"
	RoleCaregiver Role = "caregiver"
	RoleViewer    Role = "viewer"
)

// roleRank orders roles by privilege. Unknown roles rank below every known
// role so they can never satisfy a role constraint.
var roleRank = map[Role]int{
	RoleViewer:    1,
	RoleCaregiver: 2,
	RoleParent:    3,
	RoleAdmin:     4,
}

// Known reports whether r is one of the defined roles.
func (r Role) Known() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks equal to or above min. An unknown role on
// either side never satisfies the comparison.
func (r Role) AtLeast(min Role) bool {
	rr, ok := roleRank[r]
	if !ok {
		return false
	}
	mr, ok := roleRank[min]
	if !ok {
		return false
	}
	return rr >= mr
}
