package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/apperrors"
	"github.com/onboardhq/onboard-engine/pkg/audit"
	"github.com/onboardhq/onboard-engine/pkg/authz"
	"github.com/onboardhq/onboard-engine/pkg/models"
	"github.com/onboardhq/onboard-engine/pkg/repositories"
)

// UserService defines the interface for user administration.
type UserService interface {
	// Create registers a user. A duplicate email is a Conflict, not an
	// internal error.
	Create(ctx context.Context, actor authz.Actor, user *models.User) (*models.User, error)
	Get(ctx context.Context, actor authz.Actor, userID uuid.UUID) (*models.User, error)
	List(ctx context.Context, actor authz.Actor, page repositories.Page) ([]*models.User, error)
	UpdateRoles(ctx context.Context, actor authz.Actor, userID uuid.UUID, roles []string) (*models.User, error)
	SetStatus(ctx context.Context, actor authz.Actor, userID uuid.UUID, status string) (*models.User, error)
}

// userService implements UserService.
type userService struct {
	userRepo repositories.UserRepository
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

// NewUserService creates a new user service with dependencies.
func NewUserService(userRepo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		auditor:  audit.NewSecurityAuditor(logger),
		logger:   logger,
	}
}

func validateRoles(roles []string) error {
	for _, role := range roles {
		if !models.IsValidRole(role) {
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidRole, role)
		}
	}
	return nil
}

func (s *userService) Create(ctx context.Context, actor authz.Actor, user *models.User) (*models.User, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermUserManage,
	}); err != nil {
		return nil, err
	}

	if user.Email == "" {
		return nil, fmt.Errorf("email is required: %w", apperrors.ErrValidation)
	}
	if err := validateRoles(user.Roles); err != nil {
		return nil, err
	}
	if user.Status != "" && !models.IsValidUserStatus(user.Status) {
		return nil, fmt.Errorf("invalid status %q: %w", user.Status, apperrors.ErrValidation)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("created user",
		zap.String("user_id", user.ID.String()),
		zap.Strings("roles", user.Roles))

	return user, nil
}

func (s *userService) Get(ctx context.Context, actor authz.Actor, userID uuid.UUID) (*models.User, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermUserRead,
	}); err != nil {
		return nil, err
	}

	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) List(ctx context.Context, actor authz.Actor, page repositories.Page) ([]*models.User, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermUserRead,
	}); err != nil {
		return nil, err
	}

	return s.userRepo.List(ctx, page)
}

func (s *userService) UpdateRoles(ctx context.Context, actor authz.Actor, userID uuid.UUID, roles []string) (*models.User, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermUserManage,
	}); err != nil {
		return nil, err
	}

	if err := validateRoles(roles); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRoles(ctx, userID, roles); err != nil {
		return nil, err
	}

	s.auditor.LogRoleChange(actor.ID, userID, roles)

	return s.userRepo.GetByID(ctx, userID)
}

func (s *userService) SetStatus(ctx context.Context, actor authz.Actor, userID uuid.UUID, status string) (*models.User, error) {
	if _, err := decide(authz.Input{
		ActorID:         actor.ID,
		ActorRoles:      actor.Roles,
		ActorProgramIDs: actor.ProgramIDs,
		Action:          authz.PermUserManage,
	}); err != nil {
		return nil, err
	}

	if !models.IsValidUserStatus(status) {
		return nil, fmt.Errorf("invalid status %q: %w", status, apperrors.ErrValidation)
	}

	if err := s.userRepo.SetStatus(ctx, userID, status); err != nil {
		return nil, err
	}

	s.auditor.LogStatusChange(actor.ID, userID, status)

	return s.userRepo.GetByID(ctx, userID)
}

// Ensure userService implements UserService at compile time.
var _ UserService = (*userService)(nil)
