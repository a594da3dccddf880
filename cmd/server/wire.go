//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agentmesh/conversation-api/internal/config"
	"github.com/agentmesh/conversation-api/internal/domain/message"
	"github.com/agentmesh/conversation-api/internal/domain/retry"
	"github.com/agentmesh/conversation-api/internal/domain/stream"
	"github.com/agentmesh/conversation-api/internal/domain/thread"
	"github.com/agentmesh/conversation-api/internal/infrastructure/auth"
	"github.com/agentmesh/conversation-api/internal/infrastructure/database"
	"github.com/agentmesh/conversation-api/internal/infrastructure/dispatch"
	"github.com/agentmesh/conversation-api/internal/infrastructure/logger"
	messagerepo "github.com/agentmesh/conversation-api/internal/infrastructure/repository/message"
	threadrepo "github.com/agentmesh/conversation-api/internal/infrastructure/repository/thread"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver"
)

var conversationSet = wire.NewSet(
	threadrepo.NewPostgresRepository,
	messagerepo.NewPostgresRepository,
	thread.NewService,
	newDispatcherProvider,
	newSavePolicy,
	message.NewService,
	stream.NewBus,
)

// BuildApplication demonstrates how to assemble the conversation service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		conversationSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(cfg database.Config, rawCfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(rawCfg.DatabaseURL, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newDispatcherProvider(cfg *config.Config, log zerolog.Logger) message.Dispatcher {
	client := dispatch.NewClient(cfg.WorkflowEngineURL, cfg.WorkflowEngineTimeout, log)
	if client == nil {
		return nil
	}
	return client
}

func newSavePolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxRetries:      cfg.SaveMaxRetries,
		InitialDelay:    cfg.SaveRetryBaseWait,
		MaxDelay:        cfg.SaveRetryBaseWait * 16,
		BackoffStrategy: retry.BackoffExponential,
		JitterFactor:    0.2,
	}
}
