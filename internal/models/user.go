package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleProfessor UserRole = "PROFESSOR"
	RoleStudent   UserRole = "STUDENT"
	RoleUser      UserRole = "USER"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	LoginCount   int        `db:"login_count" json:"login_count"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// roleCapabilities maps each role to the operations it may perform. The
// RBAC middleware consults this table; business logic never does.
var roleCapabilities = map[UserRole][]string{
	RoleAdmin: {
		"create_user", "read_user", "update_user", "delete_user",
		"create_course", "read_course", "update_course", "delete_course",
		"create_student", "read_student", "update_student", "delete_student",
		"create_schedule", "read_schedule", "update_schedule", "delete_schedule",
		"manage_bookings", "read_labs", "manage_labs", "system_settings",
	},
	RoleProfessor: {
		"read_user", "update_own_profile",
		"read_course", "update_course",
		"read_student", "update_student",
		"create_schedule", "read_schedule", "update_schedule",
		"manage_bookings", "read_labs",
	},
	RoleStudent: {
		"read_user", "update_own_profile",
		"read_course", "read_student",
		"read_schedule", "create_booking", "read_booking",
		"read_labs",
	},
	RoleUser: {
		"read_user", "update_own_profile",
		"read_course", "read_student",
		"read_schedule", "create_booking", "read_booking",
		"read_labs",
	},
}

// Capabilities returns the capability set for a role. Unknown roles get
// nothing.
func Capabilities(role UserRole) []string {
	return roleCapabilities[role]
}

// HasCapability reports whether the role grants the given capability.
func HasCapability(role UserRole, capability string) bool {
	for _, c := range roleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}
