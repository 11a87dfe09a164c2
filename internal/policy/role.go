package policy

// Role is the closed set of roles a user can hold within the platform.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleElder      Role = "elder"
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// roleRanks orders roles for same-community comparisons. super_admin carries
// the highest rank but is excluded from every community-content eligibility
// check: the sovereignty guard short-circuits before rank is ever consulted.
var roleRanks = map[Role]int{
	RoleViewer:     1,
	RoleElder:      2,
	RoleEditor:     3,
	RoleAdmin:      4,
	RoleSuperAdmin: 5,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the hierarchy rank of the role, or 0 for unknown roles.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r ranks at or above other. Unknown roles rank 0 and
// therefore never satisfy AtLeast against a valid role.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// ParseRole validates a stored role string. The zero Role is returned for
// anything outside the closed set.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.Valid() {
		return "", false
	}
	return r, true
}
