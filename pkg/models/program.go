package models

import (
	"time"

	"github.com/google/uuid"
)

// Program is an onboarding program. Templates are attached through
// ProgramTemplateLink rows; tasks reference the program they belong to.
type Program struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// Archived reports whether the program is soft-deleted.
func (p *Program) Archived() bool {
	return p.DeletedAt != nil
}
