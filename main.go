package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/onboardhq/onboard-engine/pkg/auth"
	"github.com/onboardhq/onboard-engine/pkg/config"
	"github.com/onboardhq/onboard-engine/pkg/database"
	"github.com/onboardhq/onboard-engine/pkg/handlers"
	"github.com/onboardhq/onboard-engine/pkg/logging"
	"github.com/onboardhq/onboard-engine/pkg/middleware"
	"github.com/onboardhq/onboard-engine/pkg/repositories"
	"github.com/onboardhq/onboard-engine/pkg/retry"
	"github.com/onboardhq/onboard-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const migrationsPath = "migrations"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx := context.Background()

	// Postgres may still be starting when the service comes up; retry the
	// initial connection with backoff.
	db, err := retry.DoWithResult(ctx, nil, func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Migrations run through database/sql (required by golang-migrate).
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, migrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	// Repositories are stateless; they read their connection from the
	// per-request scope.
	userRepo := repositories.NewUserRepository()
	membershipRepo := repositories.NewMembershipRepository()
	programRepo := repositories.NewProgramRepository()
	templateRepo := repositories.NewTemplateRepository()
	linkRepo := repositories.NewLinkRepository()
	taskRepo := repositories.NewTaskRepository()

	actorService := services.NewActorService(userRepo, membershipRepo, logger)
	programService := services.NewProgramService(programRepo, logger)
	templateService := services.NewTemplateService(templateRepo, logger)
	associationService := services.NewAssociationService(linkRepo, programRepo, templateRepo, logger)
	taskService := services.NewTaskService(taskRepo, programRepo, logger)
	userService := services.NewUserService(userRepo, logger)
	membershipService := services.NewMembershipService(membershipRepo, programRepo, userRepo, logger)

	if cfg.SeedPath != "" {
		if err := applySeeds(ctx, cfg, db, templateRepo, logger); err != nil {
			logger.Fatal("Failed to apply template seeds", zap.Error(err))
		}
	}

	// The initial JWKS fetch fails transiently when an identity provider is
	// slow or rate-limiting; back off the same way as the database connect.
	jwksClient, err := retry.DoWithResult(ctx, nil, func() (*auth.JWKSClient, error) {
		return auth.NewJWKSClient(&auth.JWKSConfig{
			EnableVerification: cfg.Auth.EnableVerification,
			JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		})
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	if cfg.Auth.EnableVerification {
		if cfg.SessionSecret == "" {
			logger.Fatal("SESSION_SECRET is required when auth verification is enabled")
		}
		auth.InitSessionStore(cfg.SessionSecret)
	}

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	scopeMiddleware := handlers.ScopeMiddleware(database.WithRequestScope(db, logger))

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewProgramsHandler(programService, actorService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewTemplatesHandler(templateService, actorService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewLinksHandler(associationService, actorService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewTasksHandler(taskService, actorService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewUsersHandler(userService, actorService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewMembershipsHandler(membershipService, actorService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting onboard-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))

	if cfg.TLSCertPath != "" && cfg.TLSKeyPath != "" {
		err = http.ListenAndServeTLS(addr, cfg.TLSCertPath, cfg.TLSKeyPath, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}
	if err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// applySeeds loads the seed file and applies it on a pinned connection,
// since repositories read their connection from the context scope.
func applySeeds(ctx context.Context, cfg *config.Config, db *database.DB, templateRepo repositories.TemplateRepository, logger *zap.Logger) error {
	seeds, err := config.LoadSeed(cfg.SeedPath)
	if err != nil {
		return err
	}

	scope, err := db.AcquireScope(ctx)
	if err != nil {
		return err
	}
	defer scope.Close()

	seedService := services.NewSeedService(templateRepo, logger)
	return seedService.Apply(database.SetScope(ctx, scope), seeds)
}
