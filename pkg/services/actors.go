package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/apperrors"
	"github.com/onboardhq/onboard-engine/pkg/audit"
	"github.com/onboardhq/onboard-engine/pkg/authz"
	"github.com/onboardhq/onboard-engine/pkg/repositories"
)

// ActorService loads the acting principal for a request. Membership and
// account status are read fresh every time; there is no in-process session
// cache to go stale.
type ActorService interface {
	// Load returns the actor for the given user id, or ErrForbidden when
	// the account is suspended or archived.
	Load(ctx context.Context, userID uuid.UUID) (authz.Actor, error)
}

type actorService struct {
	userRepo       repositories.UserRepository
	membershipRepo repositories.MembershipRepository
	auditor        *audit.SecurityAuditor
	logger         *zap.Logger
}

// NewActorService creates a new actor service with dependencies.
func NewActorService(userRepo repositories.UserRepository, membershipRepo repositories.MembershipRepository, logger *zap.Logger) ActorService {
	return &actorService{
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		auditor:        audit.NewSecurityAuditor(logger),
		logger:         logger,
	}
}

func (s *actorService) Load(ctx context.Context, userID uuid.UUID) (authz.Actor, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return authz.Actor{}, err
	}

	if !user.CanAct() {
		s.auditor.LogAccessDenied(userID, user.Status)
		return authz.Actor{}, fmt.Errorf("account is %s: %w", user.Status, apperrors.ErrForbidden)
	}

	programIDs, err := s.membershipRepo.GetProgramIDsForUser(ctx, userID)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("failed to load memberships: %w", err)
	}

	return authz.Actor{ID: user.ID, Roles: user.Roles, ProgramIDs: programIDs}, nil
}

// Ensure actorService implements ActorService at compile time.
var _ ActorService = (*actorService)(nil)
