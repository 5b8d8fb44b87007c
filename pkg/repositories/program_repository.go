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

// ProgramRepository defines the interface for program data access.
type ProgramRepository interface {
	Create(ctx context.Context, program *models.Program) error
	// GetByID returns the program regardless of its archived state; callers
	// decide whether archived rows are acceptable.
	GetByID(ctx context.Context, programID uuid.UUID) (*models.Program, error)
	// List returns programs, scope-intersected when programIDs is non-nil.
	List(ctx context.Context, programIDs []uuid.UUID, includeDeleted bool, page Page) ([]*models.Program, error)
	UpdateTitle(ctx context.Context, programID uuid.UUID, title string) error
	// Transition moves status from exactly `from` to `to`; returns
	// ErrConflict when the program is no longer in `from`.
	Transition(ctx context.Context, programID uuid.UUID, from, to string) error
	// PublishWithLinkRestore atomically publishes a draft program and
	// un-deletes every archived template link under it.
	PublishWithLinkRestore(ctx context.Context, programID uuid.UUID) error
	// Archive and Restore are idempotent; archiving an archived program is
	// a successful no-op.
	Archive(ctx context.Context, programID uuid.UUID) error
	Restore(ctx context.Context, programID uuid.UUID) error
}

type programRepository struct{}

// NewProgramRepository creates a new program repository.
func NewProgramRepository() ProgramRepository {
	return &programRepository{}
}

func (r *programRepository) Create(ctx context.Context, program *models.Program) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	now := time.Now()
	if program.ID == uuid.Nil {
		program.ID = uuid.New()
	}
	if program.Status == "" {
		program.Status = models.StatusDraft
	}
	program.CreatedAt = now
	program.UpdatedAt = now

	query := `
		INSERT INTO programs (id, title, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := scope.Conn.Exec(ctx, query,
		program.ID, program.Title, program.Status, program.CreatedBy, program.CreatedAt, program.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create program: %w", err)
	}

	return nil
}

func (r *programRepository) GetByID(ctx context.Context, programID uuid.UUID) (*models.Program, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, title, status, created_by, created_at, updated_at, deleted_at
		FROM programs
		WHERE id = $1`

	var p models.Program
	err := scope.Conn.QueryRow(ctx, query, programID).Scan(
		&p.ID, &p.Title, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get program: %w", err)
	}

	return &p, nil
}

func (r *programRepository) List(ctx context.Context, programIDs []uuid.UUID, includeDeleted bool, page Page) ([]*models.Program, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	page = page.Normalize()

	query := `
		SELECT id, title, status, created_by, created_at, updated_at, deleted_at
		FROM programs
		WHERE ($1::uuid[] IS NULL OR id = ANY($1))
		  AND ($2 OR deleted_at IS NULL)
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4`

	rows, err := scope.Conn.Query(ctx, query, programIDs, includeDeleted, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
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

func (r *programRepository) UpdateTitle(ctx context.Context, programID uuid.UUID, title string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `UPDATE programs SET title = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`

	result, err := scope.Conn.Exec(ctx, query, title, time.Now(), programID)
	if err != nil {
		return fmt.Errorf("failed to update program: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *programRepository) Transition(ctx context.Context, programID uuid.UUID, from, to string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `UPDATE programs SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	result, err := scope.Conn.Exec(ctx, query, to, time.Now(), programID, from)
	if err != nil {
		return fmt.Errorf("failed to transition program: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the program is gone or it already left `from`.
		if _, err := r.GetByID(ctx, programID); err != nil {
			return err
		}
		return apperrors.ErrConflict
	}

	return nil
}

// PublishWithLinkRestore publishes a draft program and restores its archived
// template links in one transaction. The cascade is part of the publish
// action itself: archived links come back with deleted_at = NULL.
func (r *programRepository) PublishWithLinkRestore(ctx context.Context, programID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	now := time.Now()

	publishQuery := `UPDATE programs SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := tx.Exec(ctx, publishQuery, models.StatusPublished, now, programID, models.StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to publish program: %w", err)
	}
	if result.RowsAffected() == 0 {
		var status string
		statusQuery := `SELECT status FROM programs WHERE id = $1`
		scanErr := tx.QueryRow(ctx, statusQuery, programID).Scan(&status)
		if scanErr == pgx.ErrNoRows {
			err = apperrors.ErrNotFound
			return err
		}
		if scanErr != nil {
			err = fmt.Errorf("failed to check program status: %w", scanErr)
			return err
		}
		err = apperrors.ErrConflict
		return err
	}

	restoreQuery := `
		UPDATE program_template_links
		SET deleted_at = NULL, updated_at = $1
		WHERE program_id = $2 AND deleted_at IS NOT NULL`
	if _, err = tx.Exec(ctx, restoreQuery, now, programID); err != nil {
		return fmt.Errorf("failed to restore template links: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit publish: %w", err)
	}

	return nil
}

func (r *programRepository) Archive(ctx context.Context, programID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	// Idempotent: an already-archived program keeps its original deleted_at.
	query := `UPDATE programs SET deleted_at = COALESCE(deleted_at, $1), updated_at = $1 WHERE id = $2`

	result, err := scope.Conn.Exec(ctx, query, time.Now(), programID)
	if err != nil {
		return fmt.Errorf("failed to archive program: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *programRepository) Restore(ctx context.Context, programID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `UPDATE programs SET deleted_at = NULL, updated_at = $1 WHERE id = $2`

	result, err := scope.Conn.Exec(ctx, query, time.Now(), programID)
	if err != nil {
		return fmt.Errorf("failed to restore program: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Ensure programRepository implements ProgramRepository at compile time.
var _ ProgramRepository = (*programRepository)(nil)
