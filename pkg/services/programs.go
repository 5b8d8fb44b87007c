package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/apperrors"
	"github.com/onboardhq/onboard-engine/pkg/authz"
	"github.com/onboardhq/onboard-engine/pkg/models"
	"github.com/onboardhq/onboard-engine/pkg/repositories"
)

// ProgramService defines the interface for program operations. Every method
// takes the acting principal and authorizes before touching storage.
type ProgramService interface {
	Create(ctx context.Context, actor authz.Actor, title string) (*models.Program, error)
	Get(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error)
	List(ctx context.Context, actor authz.Actor, includeDeleted bool, page repositories.Page) ([]*models.Program, error)
	// Patch applies a field patch; the field gate admits title only and
	// rejects the whole patch when anything else is requested.
	Patch(ctx context.Context, actor authz.Actor, programID uuid.UUID, patch map[string]any) (*models.Program, error)
	// Publish moves draft->published and restores every archived template
	// link under the program in the same transaction.
	Publish(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error)
	// Deprecate moves published->deprecated. Forward only; nothing restores
	// a deprecated program to published.
	Deprecate(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error)
	// Archive and Restore are idempotent and valid from any status.
	Archive(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error)
	Restore(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error)
}

// programService implements ProgramService.
type programService struct {
	programRepo repositories.ProgramRepository
	logger      *zap.Logger
}

// NewProgramService creates a new program service with dependencies.
func NewProgramService(programRepo repositories.ProgramRepository, logger *zap.Logger) ProgramService {
	return &programService{
		programRepo: programRepo,
		logger:      logger,
	}
}

// patchFields extracts the requested field names from a patch, sorted for
// deterministic decisions and error messages.
func patchFields(patch map[string]any) []string {
	fields := make([]string, 0, len(patch))
	for f := range patch {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func (s *programService) Create(ctx context.Context, actor authz.Actor, title string) (*models.Program, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermProgramCreate,
	}); err != nil {
		return nil, err
	}

	if title == "" {
		return nil, fmt.Errorf("title is required: %w", apperrors.ErrValidation)
	}

	program := &models.Program{
		Title:     title,
		Status:    models.StatusDraft,
		CreatedBy: actor.ID,
	}
	if err := s.programRepo.Create(ctx, program); err != nil {
		return nil, err
	}

	s.logger.Info("created program",
		zap.String("program_id", program.ID.String()),
		zap.String("created_by", actor.ID.String()))

	return program, nil
}

func (s *programService) Get(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error) {
	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermProgramRead,
		ResourceProgramID: &programID,
	}); err != nil {
		return nil, err
	}

	return s.programRepo.GetByID(ctx, programID)
}

func (s *programService) List(ctx context.Context, actor authz.Actor, includeDeleted bool, page repositories.Page) ([]*models.Program, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermProgramRead,
	}); err != nil {
		return nil, err
	}

	// Collection reads intersect with scope instead of erroring; an actor
	// with no memberships legitimately gets an empty page.
	scope := authz.ResolveScope(actor, authz.ResourcePrograms)
	var programIDs []uuid.UUID
	switch scope.Kind {
	case authz.ScopeAll:
		programIDs = nil
	case authz.ScopeOwnedPrograms:
		programIDs = scope.ProgramIDs()
	default:
		programIDs = []uuid.UUID{}
	}

	return s.programRepo.List(ctx, programIDs, includeDeleted, page)
}

func (s *programService) Patch(ctx context.Context, actor authz.Actor, programID uuid.UUID, patch map[string]any) (*models.Program, error) {
	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermProgramUpdate,
		ResourceProgramID: &programID,
		RequestedFields:   patchFields(patch),
	}); err != nil {
		return nil, err
	}

	title, ok := patch["title"].(string)
	if !ok || title == "" {
		return nil, fmt.Errorf("title must be a non-empty string: %w", apperrors.ErrValidation)
	}

	if err := s.programRepo.UpdateTitle(ctx, programID, title); err != nil {
		return nil, err
	}

	return s.programRepo.GetByID(ctx, programID)
}

func (s *programService) Publish(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error) {
	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermProgramPublish,
		ResourceProgramID: &programID,
	}); err != nil {
		return nil, err
	}

	if err := s.programRepo.PublishWithLinkRestore(ctx, programID); err != nil {
		return nil, err
	}

	s.logger.Info("published program", zap.String("program_id", programID.String()))

	return s.programRepo.GetByID(ctx, programID)
}

func (s *programService) Deprecate(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error) {
	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermProgramPublish,
		ResourceProgramID: &programID,
	}); err != nil {
		return nil, err
	}

	if err := s.programRepo.Transition(ctx, programID, models.StatusPublished, models.StatusDeprecated); err != nil {
		return nil, err
	}

	return s.programRepo.GetByID(ctx, programID)
}

func (s *programService) Archive(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error) {
	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermProgramDelete,
		ResourceProgramID: &programID,
	}); err != nil {
		return nil, err
	}

	if err := s.programRepo.Archive(ctx, programID); err != nil {
		return nil, err
	}

	return s.programRepo.GetByID(ctx, programID)
}

func (s *programService) Restore(ctx context.Context, actor authz.Actor, programID uuid.UUID) (*models.Program, error) {
	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermProgramDelete,
		ResourceProgramID: &programID,
	}); err != nil {
		return nil, err
	}

	if err := s.programRepo.Restore(ctx, programID); err != nil {
		return nil, err
	}

	return s.programRepo.GetByID(ctx, programID)
}

// Ensure programService implements ProgramService at compile time.
var _ ProgramService = (*programService)(nil)
