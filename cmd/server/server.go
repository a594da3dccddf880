package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agentmesh/conversation-api/internal/config"
	"github.com/agentmesh/conversation-api/internal/domain/message"
	"github.com/agentmesh/conversation-api/internal/domain/retry"
	"github.com/agentmesh/conversation-api/internal/domain/stream"
	"github.com/agentmesh/conversation-api/internal/domain/thread"
	"github.com/agentmesh/conversation-api/internal/infrastructure/auth"
	"github.com/agentmesh/conversation-api/internal/infrastructure/changefeed"
	"github.com/agentmesh/conversation-api/internal/infrastructure/database"
	"github.com/agentmesh/conversation-api/internal/infrastructure/dispatch"
	"github.com/agentmesh/conversation-api/internal/infrastructure/logger"
	"github.com/agentmesh/conversation-api/internal/infrastructure/observability"
	messagerepo "github.com/agentmesh/conversation-api/internal/infrastructure/repository/message"
	threadrepo "github.com/agentmesh/conversation-api/internal/infrastructure/repository/thread"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver"
	"github.com/agentmesh/conversation-api/internal/worker"
)

// @title Conversation API
// @version 1.0
// @description Multi-tenant conversational message store with live SSE fan-out.
// @contact.name AgentMesh Team
// @contact.url https://github.com/agentmesh/conversation-api
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.Migrate(cfg.DatabaseURL, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	threadRepository := threadrepo.NewPostgresRepository(db)
	messageRepository := messagerepo.NewPostgresRepository(db)

	threadService := thread.NewService(threadRepository, log)
	messageService := message.NewService(
		messageRepository,
		threadService,
		newDispatcher(cfg, log),
		savePolicy(cfg),
		log,
	)

	bus := stream.NewBus(log)

	poller := changefeed.NewPoller(
		messageRepository,
		changefeed.NewCursorStore(db),
		bus,
		cfg.FeedPollInterval,
		cfg.FeedBatchSize,
		log,
	)
	runner := worker.NewRunner(poller, log)
	if err := runner.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start change feed runner")
	}
	defer func() {
		log.Info().Msg("stopping change feed runner")
		runner.Stop()
	}()

	httpServer := httpserver.New(cfg, log, messageService, threadService, bus, authValidator, db)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// newDispatcher returns a nil interface when no workflow engine is configured
// so the message service can skip notification entirely.
func newDispatcher(cfg *config.Config, log zerolog.Logger) message.Dispatcher {
	client := dispatch.NewClient(cfg.WorkflowEngineURL, cfg.WorkflowEngineTimeout, log)
	if client == nil {
		return nil
	}
	return client
}

func savePolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxRetries:      cfg.SaveMaxRetries,
		InitialDelay:    cfg.SaveRetryBaseWait,
		MaxDelay:        cfg.SaveRetryBaseWait * 16,
		BackoffStrategy: retry.BackoffExponential,
		JitterFactor:    0.2,
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
