package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/loan-service/internal/api/http"
	"github.com/spec-kit/loan-service/internal/api/http/handlers"
	"github.com/spec-kit/loan-service/internal/auth"
	"github.com/spec-kit/loan-service/internal/config"
	"github.com/spec-kit/loan-service/internal/events"
	"github.com/spec-kit/loan-service/internal/observability"
	"github.com/spec-kit/loan-service/internal/persistence"
	"github.com/spec-kit/loan-service/internal/repository"
	"github.com/spec-kit/loan-service/internal/scheduler"
	"github.com/spec-kit/loan-service/internal/service"
	"github.com/spec-kit/loan-service/internal/worker"
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

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	loanRepo := repository.NewLoanRepository(pool)
	registrationRepo := repository.NewRegistrationChallengeRepository(pool)
	loginRepo := repository.NewLoginChallengeRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(func(event events.Event, err error) {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	})

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:         userRepo,
		RegistrationRepo: registrationRepo,
		LoginRepo:        loginRepo,
		Dispatcher:       dispatcher,
	})
	resetService := service.NewPasswordResetService(*cfg, service.PasswordResetDependencies{
		UserRepo:   userRepo,
		ResetRepo:  resetRepo,
		Dispatcher: dispatcher,
	})
	profileService := service.NewProfileService(userRepo, profileRepo)
	loanService := service.NewLoanService(service.LoanDependencies{
		LoanRepo:   loanRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	notificationService := service.NewNotificationService(*cfg, nil, logger)
	worker.StartNotificationWorker(dispatcher, notificationService)

	if cfg.Scheduler.Enabled {
		autoReject := scheduler.NewAutoRejectScheduler(scheduler.Options{
			LoanRepo:   loanRepo,
			UserRepo:   userRepo,
			Dispatcher: dispatcher,
			Lock:       scheduler.NewRedisSweepLock(redis.Client, "loan-service:auto-reject-sweep"),
			Metrics:    metrics,
			Logger:     logger,
			Interval:   cfg.Scheduler.SweepInterval(),
			StaleAfter: cfg.Scheduler.StaleAfter(),
		})
		autoReject.Start(ctx)
		defer autoReject.Stop()
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, resetService),
		Profile:        handlers.NewProfileHandler(profileService),
		Loans:          handlers.NewLoansHandler(loanService),
		Admin:          handlers.NewAdminHandler(loanService),
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
