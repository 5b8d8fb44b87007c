package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/authz"
	"github.com/onboardhq/onboard-engine/pkg/models"
	"github.com/onboardhq/onboard-engine/pkg/repositories"
)

// LinkOverrides are the per-link metadata overrides accepted on attach.
// Nil fields inherit the template default.
type LinkOverrides struct {
	WeekNumber    *int    `json:"week_number"`
	DueOffsetDays *int    `json:"due_offset_days"`
	Required      *bool   `json:"required"`
	Visibility    *string `json:"visibility"`
	SortOrder     *int    `json:"sort_order"`
	Notes         *string `json:"notes"`
}

// AssociationService manages the program<->template link table. Mutations
// require managing the target program (program.update within scope); admins
// reach everything. All operations are idempotent and retry-safe.
type AssociationService interface {
	Attach(ctx context.Context, actor authz.Actor, programID, templateID uuid.UUID, overrides LinkOverrides) (*repositories.AttachResult, error)
	Detach(ctx context.Context, actor authz.Actor, programID, templateID uuid.UUID) (*repositories.DetachResult, error)
	// UpdateLink patches the per-link overrides. Unrecognized fields are
	// dropped silently; an empty effective patch reports updated=false.
	UpdateLink(ctx context.Context, actor authz.Actor, programID, templateID uuid.UUID, patch map[string]any) (bool, error)
	ListTemplatesForProgram(ctx context.Context, actor authz.Actor, programID uuid.UUID, includeDeleted bool, page repositories.Page) ([]*models.EffectiveTemplate, error)
	ListProgramsForTemplate(ctx context.Context, actor authz.Actor, templateID uuid.UUID, includeDeleted bool, page repositories.Page) ([]*models.Program, error)
}

// associationService implements AssociationService.
type associationService struct {
	linkRepo     repositories.LinkRepository
	programRepo  repositories.ProgramRepository
	templateRepo repositories.TemplateRepository
	logger       *zap.Logger
}

// NewAssociationService creates a new association service with dependencies.
func NewAssociationService(
	linkRepo repositories.LinkRepository,
	programRepo repositories.ProgramRepository,
	templateRepo repositories.TemplateRepository,
	logger *zap.Logger,
) AssociationService {
	return &associationService{
		linkRepo:     linkRepo,
		programRepo:  programRepo,
		templateRepo: templateRepo,
		logger:       logger,
	}
}

func (s *associationService) Attach(ctx context.Context, actor authz.Actor, programID, templateID uuid.UUID, overrides LinkOverrides) (*repositories.AttachResult, error) {
	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermProgramUpdate,
		ResourceProgramID: &programID,
	}); err != nil {
		return nil, err
	}

	// Both endpoints must exist; a dangling id is 404, not a silent link.
	if _, err := s.programRepo.GetByID(ctx, programID); err != nil {
		return nil, err
	}
	if _, err := s.templateRepo.GetByID(ctx, templateID); err != nil {
		return nil, err
	}

	link := &models.ProgramTemplateLink{
		ProgramID:     programID,
		TemplateID:    templateID,
		WeekNumber:    overrides.WeekNumber,
		DueOffsetDays: overrides.DueOffsetDays,
		Required:      overrides.Required,
		Visibility:    overrides.Visibility,
		SortOrder:     overrides.SortOrder,
		Notes:         overrides.Notes,
		Visible:       true,
		CreatedBy:     actor.ID,
		UpdatedBy:     actor.ID,
	}

	result, err := s.linkRepo.Attach(ctx, link)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("attached template",
		zap.String("program_id", programID.String()),
		zap.String("template_id", templateID.String()),
		zap.Bool("already_attached", result.AlreadyAttached))

	return result, nil
}

func (s *associationService) Detach(ctx context.Context, actor authz.Actor, programID, templateID uuid.UUID) (*repositories.DetachResult, error) {
	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermProgramUpdate,
		ResourceProgramID: &programID,
	}); err != nil {
		return nil, err
	}

	// Detaching a link that never existed is success with wasAttached=false.
	return s.linkRepo.Detach(ctx, programID, templateID)
}

func (s *associationService) UpdateLink(ctx context.Context, actor authz.Actor, programID, templateID uuid.UUID, patch map[string]any) (bool, error) {
	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermProgramUpdate,
		ResourceProgramID: &programID,
	}); err != nil {
		return false, err
	}

	return s.linkRepo.UpdateMetadata(ctx, programID, templateID, actor.ID, patch)
}

func (s *associationService) ListTemplatesForProgram(ctx context.Context, actor authz.Actor, programID uuid.UUID, includeDeleted bool, page repositories.Page) ([]*models.EffectiveTemplate, error) {
	if _, err := decide(authz.Input{
		ActorID:           actor.ID,
		ActorRoles:        actor.Roles,
		ActorProgramIDs:   actor.ProgramIDs,
		Action:            authz.PermProgramRead,
		ResourceProgramID: &programID,
	}); err != nil {
		return nil, err
	}

	return s.linkRepo.ListTemplatesForProgram(ctx, programID, includeDeleted, page)
}

func (s *associationService) ListProgramsForTemplate(ctx context.Context, actor authz.Actor, templateID uuid.UUID, includeDeleted bool, page repositories.Page) ([]*models.Program, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermTemplateRead,
	}); err != nil {
		return nil, err
	}

	programs, err := s.linkRepo.ListProgramsForTemplate(ctx, templateID, includeDeleted, page)
	if err != nil {
		return nil, err
	}

	// The rows are programs, so the program scope still applies: intersect
	// rather than deny, the same as any collection read.
	scope := authz.ResolveScope(actor, authz.ResourcePrograms)
	if scope.Kind == authz.ScopeAll {
		return programs, nil
	}
	visible := make([]*models.Program, 0, len(programs))
	for _, p := range programs {
		if scope.AllowsProgram(p.ID) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// Ensure associationService implements AssociationService at compile time.
var _ AssociationService = (*associationService)(nil)
