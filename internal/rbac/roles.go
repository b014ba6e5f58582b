package rbac

// Role names carried in access tokens.
const (
	RoleAdmin   = "admin"
	RoleDentist = "dentist"
)

// IsAdmin reports whether role may use every admin endpoint.
func IsAdmin(role string) bool { return role == RoleAdmin }
