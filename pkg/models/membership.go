package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgramMembership ties a user to a program. Manager-scope resolution is
// computed from these rows, read fresh on every request.
type ProgramMembership struct {
	UserID        uuid.UUID `json:"user_id"`
	ProgramID     uuid.UUID `json:"program_id"`
	RoleInProgram string    `json:"role_in_program"` // 'manager', 'participant'
	CreatedAt     time.Time `json:"created_at"`
}

// Program-level membership role constants.
const (
	MembershipRoleManager     = "manager"
	MembershipRoleParticipant = "participant"
)

// IsValidMembershipRole checks if the given program-level role is valid.
func IsValidMembershipRole(role string) bool {
	return role == MembershipRoleManager || role == MembershipRoleParticipant
}
