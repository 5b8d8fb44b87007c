package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the onboarding system. Roles are global
// role keys; program-level reach is derived from ProgramMembership rows.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Roles     []string   `json:"roles"`
	Status    string     `json:"status"` // 'active', 'suspended', 'archived'
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Role constants. Unknown role keys are tolerated but grant nothing.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
	RoleTrainee = "trainee"
	RoleAuditor = "auditor"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleManager, RoleViewer, RoleTrainee, RoleAuditor}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User status constants.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusArchived  = "archived"
)

// IsValidUserStatus checks if the given status is valid.
func IsValidUserStatus(status string) bool {
	return status == UserStatusActive || status == UserStatusSuspended || status == UserStatusArchived
}

// CanAct reports whether the user may authenticate requests at all.
// Suspended and archived accounts are denied before any policy evaluation.
func (u *User) CanAct() bool {
	return u.Status == UserStatusActive
}
