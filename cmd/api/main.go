package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/hotel-ops/internal/api/http"
	"github.com/spec-kit/hotel-ops/internal/api/http/handlers"
	"github.com/spec-kit/hotel-ops/internal/auth"
	"github.com/spec-kit/hotel-ops/internal/classify"
	"github.com/spec-kit/hotel-ops/internal/config"
	"github.com/spec-kit/hotel-ops/internal/events"
	"github.com/spec-kit/hotel-ops/internal/observability"
	"github.com/spec-kit/hotel-ops/internal/persistence"
	"github.com/spec-kit/hotel-ops/internal/repository"
	"github.com/spec-kit/hotel-ops/internal/service"
	"github.com/spec-kit/hotel-ops/internal/worker"
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

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	policyRepo := repository.NewSLAPolicyRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		StaffRepo: staffRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), staffRepo)

	slaService := service.NewSLAService(cfg.SLA, service.SLADependencies{
		PolicyRepo: policyRepo,
		AuditRepo:  auditRepo,
	}, logger)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       ticketRepo,
		ConversationRepo: conversationRepo,
		AuditRepo:        auditRepo,
		Classifier:       classify.NewDefault(),
		SLA:              slaService,
		Dispatcher:       dispatcher,
	}, logger)

	escalationService := service.NewEscalationService(cfg.SLA, service.EscalationDependencies{
		TicketRepo: ticketRepo,
		AuditRepo:  auditRepo,
		SLA:        slaService,
		Notifier:   notificationService,
		Metrics:    metrics,
	}, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Staff:          handlers.NewStaffHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Policies:       handlers.NewPoliciesHandler(slaService),
		Sweep:          handlers.NewSweepHandler(escalationService, cfg.Sweep.Token),
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
