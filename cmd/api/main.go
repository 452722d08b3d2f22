package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/blob"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/policy"
	"github.com/spec-kit/support-desk/internal/realtime"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/worker"
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

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		store = repository.NewMemoryStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	rules, err := policy.Load(cfg.Policy.Path)
	if err != nil {
		logger.Fatal("failed to load policy", zap.String("path", cfg.Policy.Path), zap.Error(err))
	}
	logger.Info("policy loaded", zap.String("path", cfg.Policy.Path), zap.Int("sla_rules", rules.Rules()))

	location, err := cfg.Ticket.Location()
	if err != nil {
		logger.Fatal("invalid ticket time zone", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	directory := realtime.NewDirectory(cfg.Realtime.BufferSize, metrics, logger)

	var (
		broadcaster service.Broadcaster = realtime.LocalBroadcaster{Directory: directory}
		relay       *realtime.Relay
	)
	if redis.Enabled() {
		broadcaster = realtime.NewStreamPublisher(redis.Client, cfg.Realtime.Stream)
		relay = realtime.NewRelay(redis.Client, cfg.Realtime.Stream, cfg.Realtime.StreamBlock(), directory, logger)
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Routing:    service.NewRoutingResolver(rules, cfg.Ticket.DefaultPriority),
		SLA:        service.NewSLAPolicyEngine(rules),
		Tokens:     service.RandomTokenIssuer{},
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		IDPrefix:   cfg.Ticket.IDPrefix,
		Location:   location,
	})
	surveyService := service.NewSurveyService(service.SurveyDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(dispatcher, broadcaster, metrics, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)
	relayDone := worker.StartRealtimeRelay(ctx, relay, logger)

	blobs, err := blob.NewFileStore(cfg.Blob.Root, cfg.Blob.PublicBaseURL, cfg.Blob.MaxBytes)
	if err != nil {
		logger.Fatal("failed to prepare blob store", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, auth.NewPolicy(cfg.Auth.AdminProfiles, cfg.Auth.SupportProfiles))

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Blob.MaxBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService, blobs),
		Surveys:        handlers.NewSurveysHandler(surveyService),
		Attachments:    handlers.NewAttachmentsHandler(blobs),
		Realtime:       handlers.NewRealtimeHandler(directory, cfg.Realtime.Heartbeat(), logger),
		Metrics:        metrics.Handler(),
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
	<-relayDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
