package user

import "time"

// User represents an analyst or administrator account.
type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name,omitempty"`
	PasswordHash   string     `json:"-"`
	Role           string     `json:"role"`
	TenantID       string     `json:"tenant_id"`
	LastAssignedAt *time.Time `json:"last_assigned_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// User roles
const (
	RoleSecurityAnalyst   = "security_analyst"
	RoleITHelpdeskAnalyst = "it_helpdesk_analyst"
	RoleTenantAdmin       = "tenant_admin"
	RoleSuperAdmin        = "super_admin"
	RoleUser              = "user"
)
