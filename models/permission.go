package models

// Permission is the ordered authorization level derived from a user's
// flags. The Role entity is a task-assignment grouping and never feeds
// into authorization decisions.
type Permission int

const (
	PermissionUser Permission = iota
	PermissionManager
	PermissionAdmin
)

// ResolvePermission reports the highest level a user's flags grant.
// Admin wins over manager; the flags are not combined.
func ResolvePermission(u *User) Permission {
	switch {
	case u.IsAdmin:
		return PermissionAdmin
	case u.IsManager:
		return PermissionManager
	default:
		return PermissionUser
	}
}

func (p Permission) String() string {
	switch p {
	case PermissionAdmin:
		return "admin"
	case PermissionManager:
		return "manager"
	default:
		return "user"
	}
}

// ParsePermission maps the external label back to a level. Anything
// unrecognized degrades to the lowest level.
func ParsePermission(s string) Permission {
	switch s {
	case "admin":
		return PermissionAdmin
	case "manager":
		return PermissionManager
	default:
		return PermissionUser
	}
}

// AtLeast reports whether p grants everything level does.
func (p Permission) AtLeast(level Permission) bool {
	return p >= level
}
