package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgramTemplateLink is the M2M association between a program and a
// template. Every metadata field is an optional override; nil means the
// template default applies. (program_id, template_id) is unique.
type ProgramTemplateLink struct {
	ID            uuid.UUID  `json:"id"`
	ProgramID     uuid.UUID  `json:"program_id"`
	TemplateID    uuid.UUID  `json:"template_id"`
	WeekNumber    *int       `json:"week_number"`
	DueOffsetDays *int       `json:"due_offset_days"`
	Required      *bool      `json:"required"`
	Visibility    *string    `json:"visibility"`
	SortOrder     *int       `json:"sort_order"`
	Notes         *string    `json:"notes"`
	Visible       bool       `json:"visible"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	UpdatedBy     uuid.UUID  `json:"updated_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at"`
}

// Archived reports whether the link is soft-deleted.
func (l *ProgramTemplateLink) Archived() bool {
	return l.DeletedAt != nil
}

// EffectiveTemplate is a template as it appears inside one program: the
// per-field coalesce of link overrides and template defaults.
type EffectiveTemplate struct {
	LinkID        uuid.UUID  `json:"link_id"`
	TemplateID    uuid.UUID  `json:"template_id"`
	ProgramID     uuid.UUID  `json:"program_id"`
	Label         string     `json:"label"`
	WeekNumber    *int       `json:"week_number"`
	DueOffsetDays *int       `json:"due_offset_days"`
	Required      bool       `json:"required"`
	Visibility    string     `json:"visibility"`
	SortOrder     *int       `json:"sort_order"`
	Notes         *string    `json:"notes"`
	Visible       bool       `json:"visible"`
	Archived      bool       `json:"archived"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// MergeMetadata coalesces link overrides over template defaults, one field
// at a time. A link that overrides required but not notes still inherits
// notes from the template. This is the single source of truth for effective
// metadata; repositories must not duplicate it in SQL.
func MergeMetadata(link *ProgramTemplateLink, template *Template) *EffectiveTemplate {
	eff := &EffectiveTemplate{
		LinkID:        link.ID,
		TemplateID:    template.ID,
		ProgramID:     link.ProgramID,
		Label:         template.Label,
		WeekNumber:    template.WeekNumber,
		DueOffsetDays: template.DueOffsetDays,
		Required:      template.Required,
		Visibility:    template.Visibility,
		SortOrder:     template.SortOrder,
		Notes:         template.Notes,
		Visible:       link.Visible,
		Archived:      link.Archived(),
		DeletedAt:     link.DeletedAt,
	}

	if link.WeekNumber != nil {
		eff.WeekNumber = link.WeekNumber
	}
	if link.DueOffsetDays != nil {
		eff.DueOffsetDays = link.DueOffsetDays
	}
	if link.Required != nil {
		eff.Required = *link.Required
	}
	if link.Visibility != nil {
		eff.Visibility = *link.Visibility
	}
	if link.SortOrder != nil {
		eff.SortOrder = link.SortOrder
	}
	if link.Notes != nil {
		eff.Notes = link.Notes
	}

	return eff
}
