package handlers

import (
	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/config"
	"github.com/agentmesh/conversation-api/internal/domain/message"
	"github.com/agentmesh/conversation-api/internal/domain/stream"
	"github.com/agentmesh/conversation-api/internal/domain/thread"
)

// Provider bundles the HTTP handlers for route registration.
type Provider struct {
	Message *MessageHandler
	Thread  *ThreadHandler
	Stream  *StreamHandler
}

// NewProvider constructs all handlers.
func NewProvider(
	cfg *config.Config,
	messageService message.Service,
	threadService thread.Service,
	bus *stream.Bus,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Message: NewMessageHandler(messageService, log),
		Thread:  NewThreadHandler(threadService, log),
		Stream:  NewStreamHandler(cfg, bus, log),
	}
}
