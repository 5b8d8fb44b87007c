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

// MembershipService administers program membership rows, the source of the
// OwnedPrograms scope.
type MembershipService interface {
	Add(ctx context.Context, actor authz.Actor, programID, userID uuid.UUID, roleInProgram string) error
	// Remove is a no-op for missing memberships.
	Remove(ctx context.Context, actor authz.Actor, programID, userID uuid.UUID) error
	ListByProgram(ctx context.Context, actor authz.Actor, programID uuid.UUID) ([]*models.ProgramMembership, error)
}

// membershipService implements MembershipService.
type membershipService struct {
	membershipRepo repositories.MembershipRepository
	programRepo    repositories.ProgramRepository
	userRepo       repositories.UserRepository
	logger         *zap.Logger
}

// NewMembershipService creates a new membership service with dependencies.
func NewMembershipService(
	membershipRepo repositories.MembershipRepository,
	programRepo repositories.ProgramRepository,
	userRepo repositories.UserRepository,
	logger *zap.Logger,
) MembershipService {
	return &membershipService{
		membershipRepo: membershipRepo,
		programRepo:    programRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

func (s *membershipService) Add(ctx context.Context, actor authz.Actor, programID, userID uuid.UUID, roleInProgram string) error {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermUserManage,
	}); err != nil {
		return err
	}

	if !models.IsValidMembershipRole(roleInProgram) {
		return fmt.Errorf("invalid program role %q: %w", roleInProgram, apperrors.ErrValidation)
	}
	if _, err := s.programRepo.GetByID(ctx, programID); err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}

	m := &models.ProgramMembership{
		UserID:        userID,
		ProgramID:     programID,
		RoleInProgram: roleInProgram,
	}
	if err := s.membershipRepo.Add(ctx, m); err != nil {
		return err
	}

	s.logger.Info("added membership",
		zap.String("program_id", programID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", roleInProgram))

	return nil
}

func (s *membershipService) Remove(ctx context.Context, actor authz.Actor, programID, userID uuid.UUID) error {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermUserManage,
	}); err != nil {
		return err
	}

	return s.membershipRepo.Remove(ctx, programID, userID)
}

func (s *membershipService) ListByProgram(ctx context.Context, actor authz.Actor, programID uuid.UUID) ([]*models.ProgramMembership, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermUserRead,
	}); err != nil {
		return nil, err
	}

	return s.membershipRepo.GetByProgram(ctx, programID)
}

// Ensure membershipService implements MembershipService at compile time.
var _ MembershipService = (*membershipService)(nil)
