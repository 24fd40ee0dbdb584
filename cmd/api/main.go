package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/violation-service/internal/api/http"
	"github.com/spec-kit/violation-service/internal/api/http/handlers"
	"github.com/spec-kit/violation-service/internal/auth"
	"github.com/spec-kit/violation-service/internal/config"
	"github.com/spec-kit/violation-service/internal/events"
	"github.com/spec-kit/violation-service/internal/observability"
	"github.com/spec-kit/violation-service/internal/persistence"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/internal/repository/memory"
	"github.com/spec-kit/violation-service/internal/service"
	"github.com/spec-kit/violation-service/internal/storage"
	"github.com/spec-kit/violation-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	metrics := observability.NewMetrics("violation_service")

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var repos repository.Set
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewPostgresSet(pg.Pool)
	} else {
		repos = memory.NewRepositories(memory.NewStore())
	}

	var redis *persistence.Redis
	var inbox service.NotificationInbox
	if cfg.Notification.Enabled {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		inbox = service.NewRedisInbox(redis, cfg.Notification.InboxSize)
	} else {
		inbox = service.NewMemoryInbox(cfg.Notification.InboxSize)
	}

	blobs, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to open storage bucket", zap.Error(err))
	}
	defer blobs.Close() //nolint:errcheck

	dispatcher := events.NewInMemoryDispatcher(logger)

	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   repos.Users,
		CaseRepo:   repos.Cases,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	caseService := service.NewCaseService(service.CaseDependencies{
		CaseRepo:   repos.Cases,
		UserRepo:   repos.Users,
		Dispatcher: dispatcher,
		Logger:     logger,
		DueAfter:   cfg.Cases.DueAfter(),
	})
	queryService := service.NewQueryService(service.QueryDependencies{
		QueryRepo:      repos.Queries,
		ResponseRepo:   repos.Responses,
		AttachmentRepo: repos.Attachments,
		UserRepo:       repos.Users,
		CaseRepo:       repos.Cases,
		Uploader:       blobs,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		PaymentRepo: repos.Payments,
		CaseRepo:    repos.Cases,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Currency:    cfg.Cases.Currency,
	})
	statsService := service.NewStatsService(service.StatsDependencies{
		UserRepo:  repos.Users,
		CaseRepo:  repos.Cases,
		QueryRepo: repos.Queries,
	})
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:    repos.Users,
		UserService: userService,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(inbox, logger)

	if _, err := authService.EnsureSuperAdmin(ctx, "Super Admin", cfg.Auth.SuperAdminEmail, cfg.Auth.SuperAdminPassword); err != nil {
		logger.Fatal("failed to seed super admin", zap.Error(err))
	}

	notifier := worker.NewNotificationWorker(notificationService, metrics, logger, 0)
	notifier.Register(dispatcher)
	go notifier.Run(ctx)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.Users)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
		BodyLimit:    int(cfg.Storage.MaxFileBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readinessChecks(pg, redis)),
		Auth:   handlers.NewAuthHandler(authService),
		Me: handlers.NewMeHandler(handlers.MeDependencies{
			Users:         userService,
			Cases:         caseService,
			Queries:       queryService,
			Payments:      paymentService,
			Stats:         statsService,
			Notifications: notificationService,
		}),
		AdminUsers:     handlers.NewAdminUsersHandler(userService),
		AdminCases:     handlers.NewAdminCasesHandler(caseService, paymentService),
		AdminQueries:   handlers.NewAdminQueriesHandler(queryService),
		Stats:          handlers.NewStatsHandler(statsService),
		Files:          handlers.NewFilesHandler(blobs),
		AuthMiddleware: authMiddleware,
		RateLimiter:    httptransport.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	<-notifier.Done()
}

func readinessChecks(pg *persistence.Postgres, redis *persistence.Redis) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{"postgres": nil, "redis": nil}
	if pg.Enabled() {
		checks["postgres"] = pg
	}
	if redis != nil {
		checks["redis"] = redis
	}
	return checks
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
