package accesscontrol

// PermissionManage guards all user/role/permission administration endpoints.
const PermissionManage = "manage:access_control"

// Policy maps operation names to the permission names a caller must ALL hold.
// Plain data consulted by the authorization middleware before the handler
// runs; operations absent from the table require authentication only.
type Policy map[string][]string

// DefaultPolicy returns the policy table for the administrative surface.
func DefaultPolicy() Policy {
	return Policy{
		"users.list":    {PermissionManage},
		"users.get":     {PermissionManage},
		"users.create":  {PermissionManage},
		"users.update":  {PermissionManage},
		"users.disable": {PermissionManage},
		"users.enable":  {PermissionManage},

		"roles.list":               {PermissionManage},
		"roles.get":                {PermissionManage},
		"roles.create":             {PermissionManage},
		"roles.update":             {PermissionManage},
		"roles.disable":            {PermissionManage},
		"roles.enable":             {PermissionManage},
		"roles.assign_permissions": {PermissionManage},
		"roles.remove_permissions": {PermissionManage},

		"permissions.list":    {PermissionManage},
		"permissions.get":     {PermissionManage},
		"permissions.create":  {PermissionManage},
		"permissions.update":  {PermissionManage},
		"permissions.disable": {PermissionManage},
		"permissions.enable":  {PermissionManage},
	}
}

// Required returns the permissions the operation demands, or nil when the
// operation is unrestricted.
func (p Policy) Required(operation string) []string {
	return p[operation]
}

// HasAll reports whether granted contains every required permission.
func HasAll(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(granted))
	for _, g := range granted {
		set[g] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
