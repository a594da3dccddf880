package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agentmesh/conversation-api/internal/config"
)

// New creates the conversation service logger. Production emits structured
// JSON for log shipping; other environments get the console writer.
func New(cfg *config.Config) zerolog.Logger {
	level := parseLevel(cfg.LogLevel)

	base := zerolog.New(os.Stdout)
	if cfg.Environment != "production" {
		base = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	return base.With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger().
		Level(level)
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
