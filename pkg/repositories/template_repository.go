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

// templatePatchColumns is the allow-list of columns a metadata patch may
// touch. Anything else in the patch is silently dropped.
var templatePatchColumns = map[string]bool{
	"label":           true,
	"week_number":     true,
	"due_offset_days": true,
	"required":        true,
	"visibility":      true,
	"sort_order":      true,
	"notes":           true,
}

// TemplateRepository defines the interface for template data access.
type TemplateRepository interface {
	Create(ctx context.Context, template *models.Template) error
	GetByID(ctx context.Context, templateID uuid.UUID) (*models.Template, error)
	// GetByLabel supports idempotent seeding: label lookup over live rows.
	GetByLabel(ctx context.Context, label string) (*models.Template, error)
	List(ctx context.Context, includeDeleted bool, page Page) ([]*models.Template, error)
	// Update applies an allow-listed patch; returns (false, nil) when the
	// effective patch is empty.
	Update(ctx context.Context, templateID uuid.UUID, patch map[string]any) (bool, error)
	Transition(ctx context.Context, templateID uuid.UUID, from, to string) error
	Archive(ctx context.Context, templateID uuid.UUID) error
	Restore(ctx context.Context, templateID uuid.UUID) error
}

type templateRepository struct{}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository() TemplateRepository {
	return &templateRepository{}
}

func (r *templateRepository) Create(ctx context.Context, template *models.Template) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	now := time.Now()
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	if template.Status == "" {
		template.Status = models.StatusDraft
	}
	if template.Visibility == "" {
		template.Visibility = models.VisibilityEveryone
	}
	template.CreatedAt = now
	template.UpdatedAt = now

	query := `
		INSERT INTO templates (
			id, label, week_number, due_offset_days, required, visibility,
			sort_order, notes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := scope.Conn.Exec(ctx, query,
		template.ID, template.Label, template.WeekNumber, template.DueOffsetDays,
		template.Required, template.Visibility, template.SortOrder, template.Notes,
		template.Status, template.CreatedAt, template.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

const templateColumns = `id, label, week_number, due_offset_days, required, visibility,
	       sort_order, notes, status, created_at, updated_at, deleted_at`

func scanTemplate(row pgx.Row) (*models.Template, error) {
	var t models.Template
	err := row.Scan(
		&t.ID, &t.Label, &t.WeekNumber, &t.DueOffsetDays, &t.Required, &t.Visibility,
		&t.SortOrder, &t.Notes, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *templateRepository) GetByID(ctx context.Context, templateID uuid.UUID) (*models.Template, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`

	t, err := scanTemplate(scope.Conn.QueryRow(ctx, query, templateID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return t, nil
}

func (r *templateRepository) GetByLabel(ctx context.Context, label string) (*models.Template, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + templateColumns + ` FROM templates WHERE label = $1 AND deleted_at IS NULL LIMIT 1`

	t, err := scanTemplate(scope.Conn.QueryRow(ctx, query, label))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template by label: %w", err)
	}

	return t, nil
}

func (r *templateRepository) List(ctx context.Context, includeDeleted bool, page Page) ([]*models.Template, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	page = page.Normalize()

	query := `
		SELECT ` + templateColumns + `
		FROM templates
		WHERE ($1 OR deleted_at IS NULL)
		ORDER BY week_number NULLS LAST, sort_order NULLS LAST, id
		LIMIT $2 OFFSET $3`

	rows, err := scope.Conn.Query(ctx, query, includeDeleted, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

func (r *templateRepository) Update(ctx context.Context, templateID uuid.UUID, patch map[string]any) (bool, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	setClauses, args := buildPatch(templatePatchColumns, patch)
	if len(setClauses) == 0 {
		return false, nil
	}

	query := fmt.Sprintf(
		`UPDATE templates SET %s, updated_at = $%d WHERE id = $%d AND deleted_at IS NULL`,
		joinClauses(setClauses), len(args)+1, len(args)+2)
	args = append(args, time.Now(), templateID)

	result, err := scope.Conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return false, apperrors.ErrNotFound
	}

	return true, nil
}

func (r *templateRepository) Transition(ctx context.Context, templateID uuid.UUID, from, to string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `UPDATE templates SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	result, err := scope.Conn.Exec(ctx, query, to, time.Now(), templateID, from)
	if err != nil {
		return fmt.Errorf("failed to transition template: %w", err)
	}

	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, templateID); err != nil {
			return err
		}
		return apperrors.ErrConflict
	}

	return nil
}

func (r *templateRepository) Archive(ctx context.Context, templateID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `UPDATE templates SET deleted_at = COALESCE(deleted_at, $1), updated_at = $1 WHERE id = $2`

	result, err := scope.Conn.Exec(ctx, query, time.Now(), templateID)
	if err != nil {
		return fmt.Errorf("failed to archive template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *templateRepository) Restore(ctx context.Context, templateID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `UPDATE templates SET deleted_at = NULL, updated_at = $1 WHERE id = $2`

	result, err := scope.Conn.Exec(ctx, query, time.Now(), templateID)
	if err != nil {
		return fmt.Errorf("failed to restore template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Ensure templateRepository implements TemplateRepository at compile time.
var _ TemplateRepository = (*templateRepository)(nil)
