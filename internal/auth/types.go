package auth

import "errors"

// Role is an authorisation tier carried in access tokens.
type Role string

const (
	// RoleViewer may read transducers and their data.
	RoleViewer Role = "viewer"

	// RoleOperator may additionally record data, adjust set points, and
	// edit metadata. Field gateways pushing over HTTP use this role.
	RoleOperator Role = "operator"

	// RoleAdmin may additionally create, rename, and delete transducers.
	RoleAdmin Role = "admin"
)

// ValidRoles lists every role a token may carry.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole reports whether r is one of ValidRoles.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Domain errors.
var (
	ErrTokenInvalid = errors.New("auth: invalid token")
	ErrInvalidRole  = errors.New("auth: invalid role")
	ErrForbidden    = errors.New("auth: insufficient permissions")
)
