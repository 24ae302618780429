package domain

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleEditor     = "editor"
)

type User struct {
	ID        string `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	Name      string `db:"name" json:"name"`
	Hash      string `db:"password_hash" json:"-"`
	Role      string `db:"role" json:"role"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// IsStaffRole reports whether role grants dashboard access.
func IsStaffRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleEditor:
		return true
	}
	return false
}
