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

	httptransport "github.com/spec-kit/verification-service/internal/api/http"
	"github.com/spec-kit/verification-service/internal/api/http/handlers"
	"github.com/spec-kit/verification-service/internal/auth"
	"github.com/spec-kit/verification-service/internal/config"
	"github.com/spec-kit/verification-service/internal/events"
	"github.com/spec-kit/verification-service/internal/lifecycle"
	"github.com/spec-kit/verification-service/internal/observability"
	"github.com/spec-kit/verification-service/internal/persistence"
	"github.com/spec-kit/verification-service/internal/repository"
	"github.com/spec-kit/verification-service/internal/service"
	"github.com/spec-kit/verification-service/internal/worker"
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
	requestRepo := repository.NewRequestRepository(pool)
	requestTypeRepo := repository.NewRequestTypeRepository(pool)
	occurrenceRepo := repository.NewOccurrenceRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	historyRepo := repository.NewRequestHistoryRepository(pool)

	cache := persistence.NewRequestCache(redis.Client, 5*time.Minute)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	payments := service.NewStubPaymentGateway(logger)
	effects := service.NewLifecycleEffects(payments, logger, cfg.Notification)
	engine := lifecycle.NewEngine(lifecycle.NewTable(), effects)

	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo:     requestRepo,
		RequestTypeRepo: requestTypeRepo,
		OccurrenceRepo:  occurrenceRepo,
		AgentRepo:       agentRepo,
		HistoryRepo:     historyRepo,
		Dispatcher:      dispatcher,
		Engine:          engine,
		Cache:           cache,
		Logger:          logger,
	})
	recurringService := service.NewRecurringService(occurrenceRepo, requestService, dispatcher, logger)

	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notifications.RegisterHandlers()

	if cfg.SLAMonitor.Enabled {
		monitor := service.NewSLAMonitor(requestRepo, requestService, dispatcher, metrics, logger, cfg.SLAMonitor.ScanBatchSize)
		slaWorker := worker.NewSLAWorker(monitor, cfg.SLAMonitor, logger)
		go slaWorker.Run(ctx)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Requests:       handlers.NewRequestsHandler(requestService),
		Recurring:      handlers.NewRecurringHandler(recurringService, requestService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
