package policy

import "strings"

// Role is a position in the fixed access hierarchy.
type Role string

// Roles ordered from lowest to highest rank.
const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleHR       Role = "HR"
	RoleAdmin    Role = "ADMIN"
)

// roleRanks orders roles for comparison. Higher rank means broader access.
var roleRanks = map[Role]int{
	RoleEmployee: 0,
	RoleManager:  1,
	RoleHR:       2,
	RoleAdmin:    3,
}

// AdministrativeRoles is the named group granted access to the
// administrative area. RoleAdmin is the single top administrative role.
var AdministrativeRoles = []Role{RoleHR, RoleAdmin}

// ParseRole normalizes a raw role string into a known Role.
// Unknown values fall back to RoleEmployee so a corrupted claim can
// never grant more access than the lowest tier.
func ParseRole(raw string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleManager:
		return RoleManager
	case RoleHR:
		return RoleHR
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleEmployee
	}
}

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the role's position in the hierarchy, lowest first.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether the role ranks at or above other.
func (r Role) AtLeast(other Role) bool {
	return roleRanks[r] >= roleRanks[other]
}

// IsAdministrative reports membership in the administrative group.
func (r Role) IsAdministrative() bool {
	for _, a := range AdministrativeRoles {
		if r == a {
			return true
		}
	}
	return false
}

// RoleSet is an unordered collection of roles required by a path rule.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether the role is a member of the set.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Empty reports whether no role is required.
func (s RoleSet) Empty() bool {
	return len(s) == 0
}
