package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int          { return &v }
func boolPtr(v bool) *bool       { return &v }
func strPtr(v string) *string    { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func baseTemplate() *Template {
	return &Template{
		ID:            uuid.New(),
		Label:         "Set up laptop",
		WeekNumber:    intPtr(1),
		DueOffsetDays: intPtr(3),
		Required:      false,
		Visibility:    VisibilityEveryone,
		SortOrder:     intPtr(10),
		Notes:         strPtr("IT will provide credentials"),
	}
}

func TestMergeMetadata_NoOverrides(t *testing.T) {
	tmpl := baseTemplate()
	link := &ProgramTemplateLink{
		ID:         uuid.New(),
		ProgramID:  uuid.New(),
		TemplateID: tmpl.ID,
		Visible:    true,
	}

	eff := MergeMetadata(link, tmpl)

	assert.Equal(t, tmpl.Label, eff.Label)
	assert.Equal(t, 1, *eff.WeekNumber)
	assert.Equal(t, 3, *eff.DueOffsetDays)
	assert.False(t, eff.Required)
	assert.Equal(t, VisibilityEveryone, eff.Visibility)
	assert.Equal(t, 10, *eff.SortOrder)
	assert.Equal(t, "IT will provide credentials", *eff.Notes)
	assert.True(t, eff.Visible)
	assert.False(t, eff.Archived)
}

func TestMergeMetadata_PerFieldCoalesce(t *testing.T) {
	// Link overrides required and week_number but leaves notes unset; the
	// effective notes must still come from the template.
	tmpl := baseTemplate()
	link := &ProgramTemplateLink{
		ID:         uuid.New(),
		ProgramID:  uuid.New(),
		TemplateID: tmpl.ID,
		WeekNumber: intPtr(2),
		Required:   boolPtr(true),
		Visible:    true,
	}

	eff := MergeMetadata(link, tmpl)

	assert.Equal(t, 2, *eff.WeekNumber, "overridden field comes from link")
	assert.True(t, eff.Required, "overridden field comes from link")
	assert.Equal(t, "IT will provide credentials", *eff.Notes, "unset field falls back to template")
	assert.Equal(t, 3, *eff.DueOffsetDays, "unset field falls back to template")
	assert.Equal(t, VisibilityEveryone, eff.Visibility)
}

func TestMergeMetadata_AllOverrides(t *testing.T) {
	tmpl := baseTemplate()
	link := &ProgramTemplateLink{
		ID:            uuid.New(),
		ProgramID:     uuid.New(),
		TemplateID:    tmpl.ID,
		WeekNumber:    intPtr(4),
		DueOffsetDays: intPtr(7),
		Required:      boolPtr(true),
		Visibility:    strPtr(VisibilityManagers),
		SortOrder:     intPtr(99),
		Notes:         strPtr("program-specific notes"),
		Visible:       false,
	}

	eff := MergeMetadata(link, tmpl)

	assert.Equal(t, 4, *eff.WeekNumber)
	assert.Equal(t, 7, *eff.DueOffsetDays)
	assert.True(t, eff.Required)
	assert.Equal(t, VisibilityManagers, eff.Visibility)
	assert.Equal(t, 99, *eff.SortOrder)
	assert.Equal(t, "program-specific notes", *eff.Notes)
	assert.False(t, eff.Visible)
}

func TestMergeMetadata_ArchivedLink(t *testing.T) {
	tmpl := baseTemplate()
	deleted := time.Now()
	link := &ProgramTemplateLink{
		ID:         uuid.New(),
		ProgramID:  uuid.New(),
		TemplateID: tmpl.ID,
		DeletedAt:  timePtr(deleted),
	}

	eff := MergeMetadata(link, tmpl)

	assert.True(t, eff.Archived)
	assert.NotNil(t, eff.DeletedAt)
}
