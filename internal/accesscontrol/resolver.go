// Package accesscontrol derives effective permission sets from role
// assignments and evaluates the declarative operation→permission policy table.
package accesscontrol

import (
	"sort"

	roledomain "identity-service/internal/role/domain"
)

// ResolvePermissions flattens the permission names of the given roles into one
// deduplicated, sorted set. Pure and deterministic: a principal with no roles,
// or roles with no permissions, resolves to an empty set, not an error. The
// result reflects role/permission state at call time and must be recomputed on
// every token issuance rather than cached.
func ResolvePermissions(roles []roledomain.Role) []string {
	if len(roles) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{})
	for _, r := range roles {
		for _, p := range r.Permissions {
			if p.Name == "" {
				continue
			}
			seen[p.Name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
