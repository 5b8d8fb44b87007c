package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/apperrors"
	"github.com/onboardhq/onboard-engine/pkg/authz"
	"github.com/onboardhq/onboard-engine/pkg/models"
	"github.com/onboardhq/onboard-engine/pkg/repositories"
)

// TaskService defines the interface for task operations. Tasks carry the
// two visibility axes at once: program membership and row ownership.
type TaskService interface {
	Create(ctx context.Context, actor authz.Actor, task *models.Task) (*models.Task, error)
	Get(ctx context.Context, actor authz.Actor, taskID uuid.UUID) (*models.Task, error)
	List(ctx context.Context, actor authz.Actor, includeDeleted bool, page repositories.Page) ([]*models.Task, error)
	// Patch applies a field patch through the full decision pipeline.
	// Ownership lets a task owner flip done on their own row without any
	// task permission; everything else needs the catalog.
	Patch(ctx context.Context, actor authz.Actor, taskID uuid.UUID, patch map[string]any) (*models.Task, error)
	// Delete soft-deletes; tasks are never physically removed.
	Delete(ctx context.Context, actor authz.Actor, taskID uuid.UUID) error
}

// taskService implements TaskService.
type taskService struct {
	taskRepo    repositories.TaskRepository
	programRepo repositories.ProgramRepository
	logger      *zap.Logger
}

// NewTaskService creates a new task service with dependencies.
func NewTaskService(taskRepo repositories.TaskRepository, programRepo repositories.ProgramRepository, logger *zap.Logger) TaskService {
	return &taskService{
		taskRepo:    taskRepo,
		programRepo: programRepo,
		logger:      logger,
	}
}

func (s *taskService) Create(ctx context.Context, actor authz.Actor, task *models.Task) (*models.Task, error) {
	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermTaskCreate,
		ResourceProgramID: &task.ProgramID,
	}); err != nil {
		return nil, err
	}

	if task.Label == "" {
		return nil, fmt.Errorf("label is required: %w", apperrors.ErrValidation)
	}
	if task.UserID == uuid.Nil {
		return nil, fmt.Errorf("user_id is required: %w", apperrors.ErrValidation)
	}
	if _, err := s.programRepo.GetByID(ctx, task.ProgramID); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("created task",
		zap.String("task_id", task.ID.String()),
		zap.String("program_id", task.ProgramID.String()),
		zap.String("owner_id", task.UserID.String()))

	return task, nil
}

func (s *taskService) Get(ctx context.Context, actor authz.Actor, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermTaskRead,
		ResourceOwnerID:   &task.UserID,
		ResourceProgramID: &task.ProgramID,
	}); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) List(ctx context.Context, actor authz.Actor, includeDeleted bool, page repositories.Page) ([]*models.Task, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermTaskRead,
	}); err != nil {
		return nil, err
	}

	scope := authz.ResolveScope(actor, authz.ResourceTasks)
	filter := repositories.TaskFilter{IncludeDeleted: includeDeleted}
	switch scope.Kind {
	case authz.ScopeAll:
	case authz.ScopeOwnedPrograms:
		filter.ProgramIDs = scope.ProgramIDs()
	default:
		ownerID := actor.ID
		filter.OwnerID = &ownerID
	}

	return s.taskRepo.List(ctx, filter, page)
}

// normalizeTaskPatch parses wire-format patch values into storable ones and
// extracts the destination program when the patch reassigns program_id.
func normalizeTaskPatch(patch map[string]any) (map[string]any, *uuid.UUID, error) {
	normalized := make(map[string]any, len(patch))
	var targetProgramID *uuid.UUID

	for field, value := range patch {
		switch field {
		case "program_id":
			str, ok := value.(string)
			if !ok {
				return nil, nil, fmt.Errorf("program_id must be a uuid string: %w", apperrors.ErrValidation)
			}
			id, err := uuid.Parse(str)
			if err != nil {
				return nil, nil, fmt.Errorf("malformed program_id %q: %w", str, apperrors.ErrValidation)
			}
			targetProgramID = &id
			normalized[field] = id
		case "user_id":
			str, ok := value.(string)
			if !ok {
				return nil, nil, fmt.Errorf("user_id must be a uuid string: %w", apperrors.ErrValidation)
			}
			id, err := uuid.Parse(str)
			if err != nil {
				return nil, nil, fmt.Errorf("malformed user_id %q: %w", str, apperrors.ErrValidation)
			}
			normalized[field] = id
		case "label":
			str, ok := value.(string)
			if !ok {
				return nil, nil, fmt.Errorf("label must be a string: %w", apperrors.ErrValidation)
			}
			if str == "" {
				return nil, nil, fmt.Errorf("label cannot be empty: %w", apperrors.ErrValidation)
			}
			normalized[field] = str
		case "done":
			b, ok := value.(bool)
			if !ok {
				return nil, nil, fmt.Errorf("done must be a boolean: %w", apperrors.ErrValidation)
			}
			normalized[field] = b
		case "scheduled_for":
			switch v := value.(type) {
			case nil:
				normalized[field] = nil
			case string:
				ts, err := time.Parse(time.RFC3339, v)
				if err != nil {
					return nil, nil, fmt.Errorf("malformed scheduled_for %q: %w", v, apperrors.ErrValidation)
				}
				normalized[field] = ts
			case time.Time:
				normalized[field] = v
			default:
				return nil, nil, fmt.Errorf("scheduled_for must be an RFC3339 timestamp: %w", apperrors.ErrValidation)
			}
		default:
			normalized[field] = value
		}
	}

	return normalized, targetProgramID, nil
}

func (s *taskService) Patch(ctx context.Context, actor authz.Actor, taskID uuid.UUID, patch map[string]any) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	normalized, targetProgramID, err := normalizeTaskPatch(patch)
	if err != nil {
		return nil, err
	}

	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermTaskUpdate,
		ResourceOwnerID:   &task.UserID,
		ResourceProgramID: &task.ProgramID,
		TargetProgramID:   targetProgramID,
		RequestedFields:   patchFields(patch),
	}); err != nil {
		return nil, err
	}

	if _, err := s.taskRepo.UpdateFields(ctx, taskID, normalized); err != nil {
		return nil, err
	}

	return s.taskRepo.GetByID(ctx, taskID)
}

func (s *taskService) Delete(ctx context.Context, actor authz.Actor, taskID uuid.UUID) error {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermTaskDelete,
		ResourceOwnerID:   &task.UserID,
		ResourceProgramID: &task.ProgramID,
	}); err != nil {
		return err
	}

	// Idempotent: deleting a deleted task leaves it deleted.
	_, err = s.taskRepo.UpdateFields(ctx, taskID, map[string]any{"deleted": true})
	return err
}

// Ensure taskService implements TaskService at compile time.
var _ TaskService = (*taskService)(nil)
