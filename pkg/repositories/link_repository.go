package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/onboardhq/onboard-engine/pkg/apperrors"
	"github.com/onboardhq/onboard-engine/pkg/database"
	"github.com/onboardhq/onboard-engine/pkg/models"
)

// linkPatchColumns is the allow-list for per-link metadata overrides.
var linkPatchColumns = map[string]bool{
	"week_number":     true,
	"due_offset_days": true,
	"required":        true,
	"visibility":      true,
	"sort_order":      true,
	"notes":           true,
	"visible":         true,
}

// AttachResult reports what an attach actually did. Attach is idempotent:
// a second attach of the same pair succeeds and reports the prior state.
type AttachResult struct {
	Attached        bool `json:"attached"`
	AlreadyAttached bool `json:"already_attached"`
}

// DetachResult reports what a detach actually did. Detaching a missing or
// already-detached link is success, not 404.
type DetachResult struct {
	Detached    bool `json:"detached"`
	WasAttached bool `json:"was_attached"`
}

// LinkRepository is the storage side of the Association Manager: the
// program<->template link table with per-link metadata overrides and
// soft-delete. The unique (program_id, template_id) constraint is the
// source of truth for attach race safety; no application-level locking.
type LinkRepository interface {
	Attach(ctx context.Context, link *models.ProgramTemplateLink) (*AttachResult, error)
	Detach(ctx context.Context, programID, templateID uuid.UUID) (*DetachResult, error)
	Get(ctx context.Context, programID, templateID uuid.UUID, includeDeleted bool) (*models.ProgramTemplateLink, error)
	// UpdateMetadata applies an allow-listed patch to the link overrides.
	// Returns (false, nil) when the effective patch is empty.
	UpdateMetadata(ctx context.Context, programID, templateID uuid.UUID, updatedBy uuid.UUID, patch map[string]any) (bool, error)
	// ListTemplatesForProgram returns merged effective rows ordered by
	// (week_number, sort_order, id) with NULLs last.
	ListTemplatesForProgram(ctx context.Context, programID uuid.UUID, includeDeleted bool, page Page) ([]*models.EffectiveTemplate, error)
	ListProgramsForTemplate(ctx context.Context, templateID uuid.UUID, includeDeleted bool, page Page) ([]*models.Program, error)
}

type linkRepository struct{}

// NewLinkRepository creates a new link repository.
func NewLinkRepository() LinkRepository {
	return &linkRepository{}
}

// Attach creates the link if absent. Concurrent attaches of the same pair
// collapse to one row through the unique constraint: the insert either
// lands, restores an archived row, or does nothing. Overrides supplied on a
// re-attach of a live link are ignored; UpdateMetadata changes overrides.
func (r *linkRepository) Attach(ctx context.Context, link *models.ProgramTemplateLink) (*AttachResult, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	now := time.Now()
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	link.CreatedAt = now
	link.UpdatedAt = now

	// The DO UPDATE branch only fires for archived rows, restoring them in
	// place and keeping the original link id. A live duplicate matches
	// neither branch and returns no row.
	query := `
		INSERT INTO program_template_links (
			id, program_id, template_id, week_number, due_offset_days, required,
			visibility, sort_order, notes, visible, created_by, updated_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (program_id, template_id) DO UPDATE
		SET deleted_at = NULL, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
		WHERE program_template_links.deleted_at IS NOT NULL
		RETURNING id`

	var returnedID uuid.UUID
	err := scope.Conn.QueryRow(ctx, query,
		link.ID, link.ProgramID, link.TemplateID, link.WeekNumber, link.DueOffsetDays,
		link.Required, link.Visibility, link.SortOrder, link.Notes, link.Visible,
		link.CreatedBy, link.UpdatedBy, link.CreatedAt, link.UpdatedAt,
	).Scan(&returnedID)
	if err == pgx.ErrNoRows {
		return &AttachResult{Attached: true, AlreadyAttached: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to attach template: %w", err)
	}

	link.ID = returnedID
	return &AttachResult{Attached: true, AlreadyAttached: false}, nil
}

// Detach soft-deletes the link so a later publish can restore it.
func (r *linkRepository) Detach(ctx context.Context, programID, templateID uuid.UUID) (*DetachResult, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		UPDATE program_template_links
		SET deleted_at = $1, updated_at = $1
		WHERE program_id = $2 AND template_id = $3 AND deleted_at IS NULL`

	result, err := scope.Conn.Exec(ctx, query, time.Now(), programID, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to detach template: %w", err)
	}

	return &DetachResult{Detached: true, WasAttached: result.RowsAffected() > 0}, nil
}

const linkColumns = `id, program_id, template_id, week_number, due_offset_days, required,
	       visibility, sort_order, notes, visible, created_by, updated_by,
	       created_at, updated_at, deleted_at`

func scanLink(row pgx.Row) (*models.ProgramTemplateLink, error) {
	var l models.ProgramTemplateLink
	err := row.Scan(
		&l.ID, &l.ProgramID, &l.TemplateID, &l.WeekNumber, &l.DueOffsetDays, &l.Required,
		&l.Visibility, &l.SortOrder, &l.Notes, &l.Visible, &l.CreatedBy, &l.UpdatedBy,
		&l.CreatedAt, &l.UpdatedAt, &l.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *linkRepository) Get(ctx context.Context, programID, templateID uuid.UUID, includeDeleted bool) (*models.ProgramTemplateLink, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT ` + linkColumns + `
		FROM program_template_links
		WHERE program_id = $1 AND template_id = $2 AND ($3 OR deleted_at IS NULL)`

	l, err := scanLink(scope.Conn.QueryRow(ctx, query, programID, templateID, includeDeleted))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return l, nil
}

func (r *linkRepository) UpdateMetadata(ctx context.Context, programID, templateID uuid.UUID, updatedBy uuid.UUID, patch map[string]any) (bool, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	setClauses, args := buildPatch(linkPatchColumns, patch)
	if len(setClauses) == 0 {
		return false, nil
	}

	n := len(args)
	query := fmt.Sprintf(`
		UPDATE program_template_links
		SET %s, updated_by = $%d, updated_at = $%d
		WHERE program_id = $%d AND template_id = $%d AND deleted_at IS NULL`,
		joinClauses(setClauses), n+1, n+2, n+3, n+4)
	args = append(args, updatedBy, time.Now(), programID, templateID)

	result, err := scope.Conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update link metadata: %w", err)
	}

	if result.RowsAffected() == 0 {
		return false, apperrors.ErrNotFound
	}

	return true, nil
}

// ListTemplatesForProgram joins links with their templates and merges
// overrides in Go through models.MergeMetadata, the single owner of the
// precedence rule. The ORDER BY coalesces the same way purely to produce a
// stable page order; returned values never come from SQL coalescing.
func (r *linkRepository) ListTemplatesForProgram(ctx context.Context, programID uuid.UUID, includeDeleted bool, page Page) ([]*models.EffectiveTemplate, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	page = page.Normalize()

	query := `
		SELECT l.id, l.program_id, l.template_id, l.week_number, l.due_offset_days, l.required,
		       l.visibility, l.sort_order, l.notes, l.visible, l.created_by, l.updated_by,
		       l.created_at, l.updated_at, l.deleted_at,
		       t.id, t.label, t.week_number, t.due_offset_days, t.required, t.visibility,
		       t.sort_order, t.notes, t.status, t.created_at, t.updated_at, t.deleted_at
		FROM program_template_links l
		JOIN templates t ON t.id = l.template_id
		WHERE l.program_id = $1
		  AND ($2 OR (l.deleted_at IS NULL AND t.deleted_at IS NULL))
		ORDER BY COALESCE(l.week_number, t.week_number) NULLS LAST,
		         COALESCE(l.sort_order, t.sort_order) NULLS LAST,
		         l.id
		LIMIT $3 OFFSET $4`

	rows, err := scope.Conn.Query(ctx, query, programID, includeDeleted, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list program templates: %w", err)
	}
	defer rows.Close()

	var merged []*models.EffectiveTemplate
	for rows.Next() {
		var l models.ProgramTemplateLink
		var t models.Template
		err := rows.Scan(
			&l.ID, &l.ProgramID, &l.TemplateID, &l.WeekNumber, &l.DueOffsetDays, &l.Required,
			&l.Visibility, &l.SortOrder, &l.Notes, &l.Visible, &l.CreatedBy, &l.UpdatedBy,
			&l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
			&t.ID, &t.Label, &t.WeekNumber, &t.DueOffsetDays, &t.Required, &t.Visibility,
			&t.SortOrder, &t.Notes, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", err)
		}
		merged = append(merged, models.MergeMetadata(&l, &t))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link rows: %w", err)
	}

	return merged, nil
}

func (r *linkRepository) ListProgramsForTemplate(ctx context.Context, templateID uuid.UUID, includeDeleted bool, page Page) ([]*models.Program, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	page = page.Normalize()

	query := `
		SELECT p.id, p.title, p.status, p.created_by, p.created_at, p.updated_at, p.deleted_at
		FROM program_template_links l
		JOIN programs p ON p.id = l.program_id
		WHERE l.template_id = $1
		  AND ($2 OR (l.deleted_at IS NULL AND p.deleted_at IS NULL))
		ORDER BY p.created_at, p.id
		LIMIT $3 OFFSET $4`

	rows, err := scope.Conn.Query(ctx, query, templateID, includeDeleted, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list template programs: %w", err)
	}
	defer rows.Close()

	var programs []*models.Program
	for rows.Next() {
		var p models.Program
		err := rows.Scan(&p.ID, &p.Title, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating programs: %w", err)
	}

	return programs, nil
}

// Ensure linkRepository implements LinkRepository at compile time.
var _ LinkRepository = (*linkRepository)(nil)
