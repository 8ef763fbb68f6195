package policy

import "strings"

// PathRule pairs a path prefix with the role set required to pass it.
// Prefixes may overlap: every matching rule is a gate the request must
// clear, so a narrower rule refines a broader one rather than replacing it.
type PathRule struct {
	Prefix   string
	Required RoleSet
}

// defaultRules is the ordered policy table, broad rules first. An empty
// Required set means any authenticated identity passes.
var defaultRules = []PathRule{
	{Prefix: "/admin", Required: NewRoleSet(AdministrativeRoles...)},
	{Prefix: "/admin/settings", Required: NewRoleSet(RoleAdmin)},
}

// authEntryPrefixes mark the signin entry point, which is special-cased by
// the edge enforcer rather than classified like protected paths. Only the
// entry itself: /auth/signout and /auth/me must stay reachable for
// authenticated identities.
var authEntryPrefixes = []string{LoginPath}

// publicPrefixes require no authentication at all. Signout is public so a
// request with a stale or missing token can still discard its cookie.
var publicPrefixes = []string{"/healthz", "/metrics", "/welcome", "/static", "/auth/signout"}

// Classify returns every role-set gate the path must clear, in rule order.
// It is a pure function of the path and the static table: repeated calls
// with the same path always yield the same gates.
func Classify(path string) []RoleSet {
	var gates []RoleSet
	for _, rule := range defaultRules {
		if matchesPrefix(path, rule.Prefix) {
			gates = append(gates, rule.Required)
		}
	}
	return gates
}

// IsAuthEntry reports whether the path belongs to the signin flow.
func IsAuthEntry(path string) bool {
	for _, prefix := range authEntryPrefixes {
		if matchesPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IsPublic reports whether the path is reachable without authentication.
func IsPublic(path string) bool {
	for _, prefix := range publicPrefixes {
		if matchesPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// matchesPrefix treats a prefix as a path segment boundary: "/admin"
// matches "/admin" and "/admin/settings" but not "/administrators".
func matchesPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	return path[len(prefix)] == '/'
}
