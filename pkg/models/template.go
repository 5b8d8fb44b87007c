package models

import (
	"time"

	"github.com/google/uuid"
)

// Template is a reusable onboarding checklist item. Its metadata fields are
// the defaults; a ProgramTemplateLink may override any of them per program.
type Template struct {
	ID            uuid.UUID  `json:"id"`
	Label         string     `json:"label"`
	WeekNumber    *int       `json:"week_number"`
	DueOffsetDays *int       `json:"due_offset_days"`
	Required      bool       `json:"required"`
	Visibility    string     `json:"visibility"` // 'everyone', 'managers'
	SortOrder     *int       `json:"sort_order"`
	Notes         *string    `json:"notes"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at"`
}

// Template visibility constants.
const (
	VisibilityEveryone = "everyone"
	VisibilityManagers = "managers"
)

// IsValidVisibility checks if the given visibility is valid.
func IsValidVisibility(v string) bool {
	return v == VisibilityEveryone || v == VisibilityManagers
}

// Archived reports whether the template is soft-deleted.
func (t *Template) Archived() bool {
	return t.DeletedAt != nil
}
