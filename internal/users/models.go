package users

import "context"

// Principal is an actor credited with audited actions (admin or dentist account).
type Principal struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Email  string `json:"email" db:"email"`
	RoleID int    `json:"role_id" db:"role_id"`
}

// Role ids as stored in users.role_id.
const (
	RoleIDAdmin   = 1
	RoleIDDentist = 2
)

// RoleLabel maps a role id onto the closed Admin / Dentist / Unknown classification.
func RoleLabel(roleID int) string {
	switch roleID {
	case RoleIDAdmin:
		return "Admin"
	case RoleIDDentist:
		return "Dentist"
	default:
		return "Unknown"
	}
}

// Directory resolves principals in bulk. Missing ids are simply absent from the map.
type Directory interface {
	Principals(ctx context.Context, ids []int64) (map[int64]Principal, error)
}
