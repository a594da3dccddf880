package stream

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// State is the lifecycle state of a session.
type State string

const (
	StateConnecting State = "connecting"
	StateStreaming  State = "streaming"
	StateClosed     State = "closed"
)

// Heartbeat bounds. A session always heartbeats; intervals outside the
// bounds are clamped, never disabled.
const (
	MinHeartbeat     = 1 * time.Second
	MaxHeartbeat     = 300 * time.Second
	DefaultHeartbeat = 30 * time.Second
)

// ClampHeartbeat normalizes a requested heartbeat interval.
func ClampHeartbeat(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultHeartbeat
	}
	if d < MinHeartbeat {
		return MinHeartbeat
	}
	if d > MaxHeartbeat {
		return MaxHeartbeat
	}
	return d
}

// Sink writes named events to the client. Session is the only goroutine
// calling Send, so implementations need no ordering guarantees beyond a
// single writer.
type Sink interface {
	Send(event string, payload any) error
}

// SessionConfig identifies the subscriber and tunes the session.
type SessionConfig struct {
	TenantID      string
	WorkflowID    string
	ParticipantID string
	Scope         string
	Heartbeat     time.Duration
	BufferSize    int
}

// Session bridges the bus to one streaming client. Bus deliveries land in a
// buffered channel; the Run loop is the single writer to the sink. A full
// buffer drops the event so one slow client never stalls the bus.
type Session struct {
	cfg    SessionConfig
	filter Filter
	bus    *Bus
	sink   Sink
	log    zerolog.Logger

	events  chan Event
	subID   uint64
	cleanup sync.Once
	dropped atomic.Uint64

	mu    sync.Mutex
	state State
}

// NewSession validates the config and builds a session in Connecting state.
func NewSession(cfg SessionConfig, bus *Bus, sink Sink, log zerolog.Logger) (*Session, error) {
	if strings.TrimSpace(cfg.TenantID) == "" || strings.TrimSpace(cfg.WorkflowID) == "" || strings.TrimSpace(cfg.ParticipantID) == "" {
		return nil, fmt.Errorf("tenant, workflow and participant are required")
	}
	cfg.Heartbeat = ClampHeartbeat(cfg.Heartbeat)
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}

	return &Session{
		cfg:    cfg,
		filter: NewFilter(cfg.WorkflowID, cfg.ParticipantID, cfg.TenantID, cfg.Scope),
		bus:    bus,
		sink:   sink,
		log: log.With().
			Str("component", "stream_session").
			Str("workflow_id", cfg.WorkflowID).
			Str("participant_id", cfg.ParticipantID).
			Str("tenant_id", cfg.TenantID).
			Logger(),
		events: make(chan Event, cfg.BufferSize),
		state:  StateConnecting,
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dropped returns the number of events discarded because the client buffer
// was full.
func (s *Session) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run drives the session until the context is canceled or a write fails.
// Cleanup runs exactly once on every exit path.
func (s *Session) Run(ctx context.Context) error {
	defer s.close()

	if err := s.sink.Send("connected", s.connectedPayload()); err != nil {
		return err
	}

	s.subID = s.bus.Subscribe(s.enqueue)
	s.setState(StateStreaming)

	ticker := time.NewTicker(s.cfg.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.events:
			if !s.filter.Matches(ev) {
				continue
			}
			if err := s.sink.Send(ev.Message.Type, newEnvelope(ev)); err != nil {
				return err
			}
		case <-ticker.C:
			if err := s.sink.Send("heartbeat", s.heartbeatPayload()); err != nil {
				return err
			}
		}
	}
}

// enqueue runs on the publisher goroutine and must never block.
func (s *Session) enqueue(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.dropped.Add(1)
		s.log.Warn().
			Str("message_id", ev.Message.PublicID).
			Uint64("dropped_total", s.dropped.Load()).
			Msg("client buffer full, dropping event")
	}
}

func (s *Session) close() {
	s.cleanup.Do(func() {
		if s.subID != 0 {
			s.bus.Unsubscribe(s.subID)
		}
		s.setState(StateClosed)
		s.log.Debug().Uint64("dropped_total", s.dropped.Load()).Msg("session closed")
	})
}

func (s *Session) connectedPayload() map[string]any {
	return map[string]any{
		"message":        "connected",
		"workflow_id":    s.cfg.WorkflowID,
		"participant_id": s.cfg.ParticipantID,
		"tenant_id":      s.cfg.TenantID,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}
}

func (s *Session) heartbeatPayload() map[string]any {
	return map[string]any{
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"active_subscribers": s.bus.SubscriberCount(),
	}
}

// Envelope is the wire shape of a streamed message event.
type Envelope struct {
	ID            string    `json:"id"`
	ThreadID      string    `json:"thread_id"`
	WorkflowID    string    `json:"workflow_id"`
	ParticipantID string    `json:"participant_id"`
	Direction     string    `json:"direction"`
	Type          string    `json:"type"`
	Text          string    `json:"text,omitempty"`
	Payload       any       `json:"payload,omitempty"`
	Hint          string    `json:"hint,omitempty"`
	Scope         string    `json:"scope,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func newEnvelope(ev Event) Envelope {
	msg := ev.Message
	return Envelope{
		ID:            msg.PublicID,
		ThreadID:      msg.ThreadPublicID,
		WorkflowID:    msg.WorkflowID,
		ParticipantID: msg.ParticipantID,
		Direction:     string(msg.Direction),
		Type:          msg.Type,
		Text:          msg.Text,
		Payload:       msg.Payload,
		Hint:          msg.Hint,
		Scope:         msg.Scope,
		RequestID:     msg.RequestID,
		CreatedBy:     msg.CreatedBy,
		CreatedAt:     msg.CreatedAt,
	}
}
