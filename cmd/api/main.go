package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/automation-hub/internal/api/http"
	"github.com/spec-kit/automation-hub/internal/api/http/handlers"
	"github.com/spec-kit/automation-hub/internal/auth"
	"github.com/spec-kit/automation-hub/internal/config"
	"github.com/spec-kit/automation-hub/internal/events"
	"github.com/spec-kit/automation-hub/internal/observability"
	"github.com/spec-kit/automation-hub/internal/persistence"
	"github.com/spec-kit/automation-hub/internal/repository"
	"github.com/spec-kit/automation-hub/internal/service"
	"github.com/spec-kit/automation-hub/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	registrationRepo := repository.NewRegistrationRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	resultFileRepo := repository.NewResultFileRepository(pool)
	submissionRepo := repository.NewSubmissionEventRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	scriptNodeRepo := repository.NewScriptNodeRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMin)
	throttle := auth.NewLoginThrottle(redis.Client, logger, cfg.Auth.MaxLoginAttempts, cfg.Auth.LoginWindow())

	bootstrapService := service.NewBootstrapService(userRepo, cfg.Demo, cfg.Auth.BcryptCost, logger)
	if err := bootstrapService.Run(ctx); err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	authService := service.NewAuthService(service.AuthDependencies{
		Users:         userRepo,
		Registrations: registrationRepo,
		Tokens:        tokenManager,
		Throttle:      throttle,
		Logger:        logger,
		BcryptCost:    cfg.Auth.BcryptCost,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		Requests:    requestRepo,
		Attachments: attachmentRepo,
		ResultFiles: resultFileRepo,
		Submissions: submissionRepo,
		Comments:    commentRepo,
		ScriptNodes: scriptNodeRepo,
		Users:       userRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	scriptTreeService := service.NewScriptTreeService(service.ScriptTreeDependencies{
		Nodes:       scriptNodeRepo,
		Requests:    requestRepo,
		ResultFiles: resultFileRepo,
		Logger:      logger,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		Users:         userRepo,
		Registrations: registrationRepo,
		Requests:      requestRepo,
		ScriptNodes:   scriptNodeRepo,
		Dispatcher:    dispatcher,
		Logger:        logger,
		BcryptCost:    cfg.Auth.BcryptCost,
		DemoEmail:     cfg.Demo.Email,
	})
	analysisService := service.NewAnalysisService(service.AnalysisDependencies{
		Config:      cfg.AI,
		Requests:    requestRepo,
		Attachments: attachmentRepo,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(cfg.SMTP, logger)
	worker.StartNotificationWorker(notificationService, dispatcher)

	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 50 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(adminService),
		Requests:       handlers.NewRequestsHandler(requestService),
		Analysis:       handlers.NewAnalysisHandler(analysisService),
		ScriptTree:     handlers.NewScriptTreeHandler(scriptTreeService),
		Registrations:  handlers.NewRegistrationsHandler(adminService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
