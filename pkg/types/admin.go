package types

import "time"

// Role is an admin user's role, which determines its default
// permission set.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
	RoleViewer     Role = "viewer"
)

// AdminUser is an operator account for the admin control surface.
type AdminUser struct {
	ID            string     `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	FirstName     string     `json:"firstName,omitempty" db:"first_name"`
	LastName      string     `json:"lastName,omitempty" db:"last_name"`
	Role          Role       `json:"role" db:"role"`
	Permissions   []string   `json:"permissions" db:"-"`
	Active        bool       `json:"active" db:"active"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// defaultPermissionsByRole mirrors the role -> permission-set mapping
// consulted by the admin control surface (C8) when no explicit
// permission override is stored on the user.
var defaultPermissionsByRole = map[Role][]string{
	RoleSuperAdmin: {"*"},
	RoleAdmin: {
		"create:users", "update:users", "delete:users", "read:users",
		"read:audit", "trigger:sync", "manage:rate-limits", "manage:ip-blocking",
		"manage:job-control", "read:analytics",
	},
	RoleEditor: {
		"read:users", "trigger:sync", "read:analytics",
	},
	RoleViewer: {
		"read:users", "read:analytics",
	},
}

// DefaultPermissionsFor returns the default permission set for a role.
func DefaultPermissionsFor(role Role) []string {
	perms, ok := defaultPermissionsByRole[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether the user holds the given permission,
// either via its stored permission set or because it is a super_admin
// (who logically holds every permission regardless of stored set).
func (u *AdminUser) HasPermission(permission string) bool {
	if u.Role == RoleSuperAdmin {
		return true
	}
	for _, p := range u.EffectivePermissions() {
		if p == permission || p == "*" {
			return true
		}
	}
	return false
}

// EffectivePermissions returns the user's stored permissions, falling
// back to the role default set when none are stored explicitly.
func (u *AdminUser) EffectivePermissions() []string {
	if len(u.Permissions) > 0 {
		return u.Permissions
	}
	return DefaultPermissionsFor(u.Role)
}
