package auth

// Permission is a named capability checked by the API.
type Permission string

const (
	PermTransducerRead    Permission = "transducer:read"
	PermTransducerOperate Permission = "transducer:operate"
	PermTransducerManage  Permission = "transducer:manage"
)

// rolePermissions is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer:   {PermTransducerRead},
	RoleOperator: {PermTransducerRead, PermTransducerOperate},
	RoleAdmin:    {PermTransducerRead, PermTransducerOperate, PermTransducerManage},
}

// HasPermission reports whether role grants perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of the permissions granted to role,
// or nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
