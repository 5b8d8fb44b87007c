package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/apperrors"
	"github.com/onboardhq/onboard-engine/pkg/authz"
	"github.com/onboardhq/onboard-engine/pkg/models"
	"github.com/onboardhq/onboard-engine/pkg/repositories"
)

// TemplateService defines the interface for template operations. Templates
// are a global catalog; reach is decided by the permission catalog alone.
type TemplateService interface {
	Create(ctx context.Context, actor authz.Actor, template *models.Template) (*models.Template, error)
	Get(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error)
	List(ctx context.Context, actor authz.Actor, includeDeleted bool, page repositories.Page) ([]*models.Template, error)
	// Patch applies a metadata patch through the field gate. Any requested
	// field outside the template.update set rejects the whole patch.
	Patch(ctx context.Context, actor authz.Actor, templateID uuid.UUID, patch map[string]any) (*models.Template, error)
	// Publish and Deprecate are the only paths that move status.
	Publish(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error)
	Deprecate(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error)
	Archive(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error)
	Restore(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error)
}

// templateService implements TemplateService.
type templateService struct {
	templateRepo repositories.TemplateRepository
	logger       *zap.Logger
}

// NewTemplateService creates a new template service with dependencies.
func NewTemplateService(templateRepo repositories.TemplateRepository, logger *zap.Logger) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		logger:       logger,
	}
}

func (s *templateService) Create(ctx context.Context, actor authz.Actor, template *models.Template) (*models.Template, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermTemplateCreate,
	}); err != nil {
		return nil, err
	}

	if template.Label == "" {
		return nil, fmt.Errorf("label is required: %w", apperrors.ErrValidation)
	}
	if template.Visibility != "" && !models.IsValidVisibility(template.Visibility) {
		return nil, fmt.Errorf("invalid visibility %q: %w", template.Visibility, apperrors.ErrValidation)
	}

	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, err
	}

	s.logger.Info("created template",
		zap.String("template_id", template.ID.String()),
		zap.String("label", template.Label))

	return template, nil
}

func (s *templateService) Get(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermTemplateRead,
	}); err != nil {
		return nil, err
	}

	return s.templateRepo.GetByID(ctx, templateID)
}

func (s *templateService) List(ctx context.Context, actor authz.Actor, includeDeleted bool, page repositories.Page) ([]*models.Template, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermTemplateRead,
	}); err != nil {
		return nil, err
	}

	return s.templateRepo.List(ctx, includeDeleted, page)
}

func (s *templateService) Patch(ctx context.Context, actor authz.Actor, templateID uuid.UUID, patch map[string]any) (*models.Template, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermTemplateUpdate,
		RequestedFields: patchFields(patch),
	}); err != nil {
		return nil, err
	}

	if v, ok := patch["visibility"].(string); ok && !models.IsValidVisibility(v) {
		return nil, fmt.Errorf("invalid visibility %q: %w", v, apperrors.ErrValidation)
	}

	if _, err := s.templateRepo.Update(ctx, templateID, patch); err != nil {
		return nil, err
	}

	return s.templateRepo.GetByID(ctx, templateID)
}

func (s *templateService) Publish(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error) {
	return s.transition(ctx, actor, templateID, models.StatusDraft, models.StatusPublished)
}

func (s *templateService) Deprecate(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error) {
	return s.transition(ctx, actor, templateID, models.StatusPublished, models.StatusDeprecated)
}

func (s *templateService) transition(ctx context.Context, actor authz.Actor, templateID uuid.UUID, from, to string) (*models.Template, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermTemplateUpdate,
	}); err != nil {
		return nil, err
	}

	if err := s.templateRepo.Transition(ctx, templateID, from, to); err != nil {
		return nil, err
	}

	return s.templateRepo.GetByID(ctx, templateID)
}

func (s *templateService) Archive(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermTemplateDelete,
	}); err != nil {
		return nil, err
	}

	if err := s.templateRepo.Archive(ctx, templateID); err != nil {
		return nil, err
	}

	return s.templateRepo.GetByID(ctx, templateID)
}

func (s *templateService) Restore(ctx context.Context, actor authz.Actor, templateID uuid.UUID) (*models.Template, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermTemplateDelete,
	}); err != nil {
		return nil, err
	}

	if err := s.templateRepo.Restore(ctx, templateID); err != nil {
		return nil, err
	}

	return s.templateRepo.GetByID(ctx, templateID)
}

// Ensure templateService implements TemplateService at compile time.
var _ TemplateService = (*templateService)(nil)
