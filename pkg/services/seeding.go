package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/apperrors"
	"github.com/onboardhq/onboard-engine/pkg/config"
	"github.com/onboardhq/onboard-engine/pkg/models"
	"github.com/onboardhq/onboard-engine/pkg/repositories"
)

// SeedService applies starter templates at startup. Seeding is idempotent:
// a template whose label already exists is skipped, so restarts and
// redeploys converge to the same catalog.
type SeedService interface {
	Apply(ctx context.Context, seeds []config.SeedTemplate) error
}

type seedService struct {
	templateRepo repositories.TemplateRepository
	logger       *zap.Logger
}

// NewSeedService creates a new seed service with dependencies.
func NewSeedService(templateRepo repositories.TemplateRepository, logger *zap.Logger) SeedService {
	return &seedService{
		templateRepo: templateRepo,
		logger:       logger,
	}
}

func (s *seedService) Apply(ctx context.Context, seeds []config.SeedTemplate) error {
	created := 0
	for _, seed := range seeds {
		_, err := s.templateRepo.GetByLabel(ctx, seed.Label)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		template := &models.Template{
			Label:         seed.Label,
			WeekNumber:    seed.WeekNumber,
			DueOffsetDays: seed.DueOffsetDays,
			Required:      seed.Required,
			Visibility:    seed.Visibility,
			SortOrder:     seed.SortOrder,
			Notes:         seed.Notes,
			Status:        models.StatusPublished,
		}
		if err := s.templateRepo.Create(ctx, template); err != nil {
			return err
		}
		created++
	}

	s.logger.Info("applied template seeds",
		zap.Int("total", len(seeds)),
		zap.Int("created", created))

	return nil
}

// Ensure seedService implements SeedService at compile time.
var _ SeedService = (*seedService)(nil)
