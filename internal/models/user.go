package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperuser        UserRole = "SUPERUSER"
	RoleAdminResource    UserRole = "ADMIN_RESOURCE"
	RoleAdminReservation UserRole = "ADMIN_RESERVATION"
	RoleCalendarViewer   UserRole = "CALENDAR_VIEWER"
	RoleVigilancia       UserRole = "VIGILANCIA"
	RoleUser             UserRole = "USER"
)

// IsAdministrative reports whether the role may block slots, review requests and see hidden blocks.
func (r UserRole) IsAdministrative() bool {
	switch r {
	case RoleSuperuser, RoleAdminResource, RoleAdminReservation:
		return true
	default:
		return false
	}
}

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperuser, RoleAdminResource, RoleAdminReservation, RoleCalendarViewer, RoleVigilancia, RoleUser:
		return true
	default:
		return false
	}
}

// User is the subset of the users table the engine reads.
type User struct {
	ID       string   `db:"id" json:"id"`
	TenantID string   `db:"tenant_id" json:"tenant_id"`
	Name     string   `db:"name" json:"name"`
	LastName string   `db:"last_name" json:"last_name"`
	Email    string   `db:"email" json:"email"`
	Role     UserRole `db:"role" json:"role"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
