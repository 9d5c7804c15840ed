package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/coachhub/coach-platform/internal/api/http"
	"github.com/coachhub/coach-platform/internal/api/http/handlers"
	"github.com/coachhub/coach-platform/internal/config"
	"github.com/coachhub/coach-platform/internal/events"
	"github.com/coachhub/coach-platform/internal/gate"
	"github.com/coachhub/coach-platform/internal/identity"
	"github.com/coachhub/coach-platform/internal/observability"
	"github.com/coachhub/coach-platform/internal/persistence"
	"github.com/coachhub/coach-platform/internal/repository"
	"github.com/coachhub/coach-platform/internal/service"
	"github.com/coachhub/coach-platform/internal/worker"
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
	identityRepo := repository.NewIdentityRepository(pool)
	sessionRepo := repository.NewSessionRepository(redis.Client)
	documentRepo := repository.NewDocumentRepository(pool)
	profileRepo := repository.NewProfileRepository(documentRepo)
	studentRepo := repository.NewStudentRepository(documentRepo)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	provider := identity.NewLocalProvider(cfg.Auth, identityRepo, sessionRepo, dispatcher, logger)

	accountService := service.NewAccountService(service.AccountDependencies{
		Provider:    provider,
		ProfileRepo: profileRepo,
		StudentRepo: studentRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	lookupTimeout := cfg.Gate.ProfileLookupTimeout()
	newGate := func(area gate.Area) *gate.Middleware {
		return gate.NewMiddleware(area, provider, profileRepo, provider,
			notificationService, dispatcher, metrics, logger, lookupTimeout)
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Accounts:         handlers.NewAccountsHandler(accountService, provider, provider),
		Areas:            handlers.NewAreasHandler(accountService, profileRepo, studentRepo),
		AdminGate:        newGate(gate.AdminArea()),
		DashboardGate:    newGate(gate.DashboardArea()),
		NutritionistGate: newGate(gate.NutritionistArea()),
		PersonalGate:     newGate(gate.PersonalArea()),
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
