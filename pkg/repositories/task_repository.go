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

// taskPatchColumns is the allow-list for task field patches. The authz layer
// narrows this further per actor; the repository only guards against columns
// that must never be patched through this path.
var taskPatchColumns = map[string]bool{
	"label":         true,
	"scheduled_for": true,
	"done":          true,
	"program_id":    true,
	"user_id":       true,
	"deleted":       true,
}

// TaskFilter narrows a task listing. A nil ProgramIDs means no program
// restriction; an empty non-nil slice matches nothing, which is how an
// out-of-scope read collapses to an empty page instead of an error.
type TaskFilter struct {
	ProgramIDs     []uuid.UUID
	OwnerID        *uuid.UUID
	IncludeDeleted bool
}

// TaskRepository defines the interface for task data access.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, taskID uuid.UUID) (*models.Task, error)
	List(ctx context.Context, filter TaskFilter, page Page) ([]*models.Task, error)
	// UpdateFields applies an allow-listed patch; returns (false, nil) when
	// the effective patch is empty.
	UpdateFields(ctx context.Context, taskID uuid.UUID, patch map[string]any) (bool, error)
}

type taskRepository struct{}

// NewTaskRepository creates a new task repository.
func NewTaskRepository() TaskRepository {
	return &taskRepository{}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	now := time.Now()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	task.CreatedAt = now
	task.UpdatedAt = now

	query := `
		INSERT INTO tasks (id, user_id, program_id, label, scheduled_for, done, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := scope.Conn.Exec(ctx, query,
		task.ID, task.UserID, task.ProgramID, task.Label, task.ScheduledFor,
		task.Done, task.Deleted, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT id, user_id, program_id, label, scheduled_for, done, deleted, created_at, updated_at
		FROM tasks
		WHERE id = $1`

	var t models.Task
	err := scope.Conn.QueryRow(ctx, query, taskID).Scan(
		&t.ID, &t.UserID, &t.ProgramID, &t.Label, &t.ScheduledFor,
		&t.Done, &t.Deleted, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &t, nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter, page Page) ([]*models.Task, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	page = page.Normalize()

	query := `
		SELECT id, user_id, program_id, label, scheduled_for, done, deleted, created_at, updated_at
		FROM tasks
		WHERE ($1::uuid[] IS NULL OR program_id = ANY($1))
		  AND ($2::uuid IS NULL OR user_id = $2)
		  AND ($3 OR NOT deleted)
		ORDER BY scheduled_for NULLS LAST, created_at, id
		LIMIT $4 OFFSET $5`

	rows, err := scope.Conn.Query(ctx, query,
		filter.ProgramIDs, filter.OwnerID, filter.IncludeDeleted, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var t models.Task
		err := rows.Scan(
			&t.ID, &t.UserID, &t.ProgramID, &t.Label, &t.ScheduledFor,
			&t.Done, &t.Deleted, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func (r *taskRepository) UpdateFields(ctx context.Context, taskID uuid.UUID, patch map[string]any) (bool, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return false, fmt.Errorf("no database scope in context")
	}

	setClauses, args := buildPatch(taskPatchColumns, patch)
	if len(setClauses) == 0 {
		return false, nil
	}

	query := fmt.Sprintf(
		`UPDATE tasks SET %s, updated_at = $%d WHERE id = $%d`,
		joinClauses(setClauses), len(args)+1, len(args)+2)
	args = append(args, time.Now(), taskID)

	result, err := scope.Conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return false, apperrors.ErrNotFound
	}

	return true, nil
}

// Ensure taskRepository implements TaskRepository at compile time.
var _ TaskRepository = (*taskRepository)(nil)
