package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"social-client/internal/config"
	"social-client/internal/observability"
	"social-client/internal/telemetry"
)

// Handler consumes the payload of one push event.
type Handler func(data json.RawMessage)

var (
	// ErrNotConnected is returned for emits before Connect succeeds.
	ErrNotConnected = errors.New("realtime: not connected")
	// ErrHandlerBound is returned when an event already has a subscriber.
	// Subscription is exclusive: the previous owner must unsubscribe first.
	ErrHandlerBound = errors.New("realtime: handler already bound")
	// ErrAckTimeout is returned when the server does not acknowledge an
	// emitted frame within the configured window.
	ErrAckTimeout = errors.New("realtime: ack timeout")
)

// Manager owns the client's single realtime connection. It is an injected
// resource with an explicit lifecycle: Connect and Close bracket its use and
// both are idempotent. Connection loss triggers automatic reconnection with
// a bounded retry count and fixed backoff; beyond that the channel goes
// silent and only logs, metrics and telemetry record the degradation.
type Manager struct {
	cfg     config.Realtime
	logger  *zap.Logger
	emitter *telemetry.Emitter

	mu        sync.Mutex
	tr        transport
	token     string
	userID    string
	handlers  map[string]Handler
	acks      map[string]chan string
	connected bool
	closed    bool
}

// NewManager builds a disconnected manager.
func NewManager(cfg config.Realtime, logger *zap.Logger, emitter *telemetry.Emitter) *Manager {
	return &Manager{
		cfg:      cfg,
		logger:   logger,
		emitter:  emitter,
		handlers: make(map[string]Handler),
		acks:     make(map[string]chan string),
	}
}

// Connect opens the channel. Calling it while connected is a no-op. The
// streaming transport is tried first with bounded retries and fixed backoff,
// then the polling fallback.
func (m *Manager) Connect(ctx context.Context, token string) error {
	m.mu.Lock()
	if m.connected {
		m.mu.Unlock()
		return nil
	}
	m.closed = false
	m.mu.Unlock()

	tr, err := m.dial(ctx, token)
	if err != nil {
		m.emitter.Emit(ctx, "connect_error", "", map[string]any{"reason": err.Error()})
		return err
	}

	m.mu.Lock()
	if m.closed || m.connected {
		// a concurrent Close or Connect won while we were dialing
		m.mu.Unlock()
		tr.close()
		return nil
	}
	m.tr = tr
	m.token = token
	m.connected = true
	m.mu.Unlock()

	observability.SetRealtimeConnected(true)
	m.logger.Info("realtime connected", zap.String("transport", tr.name()))
	m.emitter.Emit(ctx, "connect", m.currentUserID(), map[string]any{"transport": tr.name()})

	go m.readLoop(tr)
	return nil
}

func (m *Manager) dial(ctx context.Context, token string) (transport, error) {
	var lastErr error
	for attempt := 1; attempt <= m.cfg.MaxRetries; attempt++ {
		tr, err := dialWebsocket(ctx, m.cfg.URL, token)
		if err == nil {
			return tr, nil
		}
		lastErr = err
		m.logger.Warn("websocket dial failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", m.cfg.MaxRetries),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.cfg.RetryBackoff):
		}
	}

	if m.cfg.PollURL != "" {
		m.logger.Warn("streaming unavailable, falling back to polling", zap.Error(lastErr))
		tr, err := dialPolling(ctx, m.cfg.PollURL, token)
		if err == nil {
			return tr, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("realtime connect: %w", lastErr)
}

// Authenticate identifies the session on the channel and waits for the
// server's acknowledgement, so callers can distinguish "connected" from
// "connected and authorized".
func (m *Manager) Authenticate(ctx context.Context, userID string) error {
	if err := m.emitAcked(ctx, frameAuthenticate, map[string]string{"userId": userID}); err != nil {
		return err
	}
	m.mu.Lock()
	m.userID = userID
	m.mu.Unlock()
	return nil
}

// JoinRoom subscribes the connection to a room's events, acknowledged.
func (m *Manager) JoinRoom(ctx context.Context, roomID string) error {
	return m.emitAcked(ctx, frameJoinRoom, map[string]string{"roomId": roomID})
}

// LeaveRoom unsubscribes the connection from a room, acknowledged. Leaving
// a room never joined acks cleanly and is a no-op.
func (m *Manager) LeaveRoom(ctx context.Context, roomID string) error {
	return m.emitAcked(ctx, frameLeaveRoom, map[string]string{"roomId": roomID})
}

// Typing announces keystroke activity in a room, fire-and-forget.
func (m *Manager) Typing(ctx context.Context, roomID string) error {
	data, err := json.Marshal(map[string]string{"roomId": roomID})
	if err != nil {
		return err
	}

	m.mu.Lock()
	tr := m.tr
	ok := m.connected
	m.mu.Unlock()
	if !ok {
		return ErrNotConnected
	}

	observability.IncRealtimeEvent(frameTyping, "out")
	return tr.send(frame{Type: frameTyping, Data: data})
}

// Subscribe binds the handler for one event name. Registration is
// exclusive: a second Subscribe for a bound event fails until the first
// owner unsubscribes.
func (m *Manager) Subscribe(event string, h Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.handlers[event]; taken {
		return fmt.Errorf("%s: %w", event, ErrHandlerBound)
	}
	m.handlers[event] = h
	return nil
}

// Unsubscribe releases the handler for one event name.
func (m *Manager) Unsubscribe(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, event)
}

// Connected reports whether a transport is currently live.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Close tears the channel down. Idempotent; a later Connect reopens it.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.connected = false
	tr := m.tr
	m.tr = nil
	userID := m.userID
	m.userID = ""
	m.mu.Unlock()

	observability.SetRealtimeConnected(false)
	if tr != nil {
		m.emitter.Emit(context.Background(), "disconnect", userID, map[string]any{"reason": "client close"})
		return tr.close()
	}
	return nil
}

func (m *Manager) emitAcked(ctx context.Context, frameType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return ErrNotConnected
	}
	tr := m.tr
	ackID := uuid.NewString()
	ch := make(chan string, 1)
	m.acks[ackID] = ch
	m.mu.Unlock()

	if err := tr.send(frame{Type: frameType, AckID: ackID, Data: data}); err != nil {
		m.dropAck(ackID)
		return fmt.Errorf("%s: %w", frameType, err)
	}
	observability.IncRealtimeEvent(frameType, "out")

	select {
	case reason := <-ch:
		if reason != "" {
			return fmt.Errorf("%s rejected: %s", frameType, reason)
		}
		return nil
	case <-time.After(m.cfg.AckTimeout):
		m.dropAck(ackID)
		return fmt.Errorf("%s: %w", frameType, ErrAckTimeout)
	case <-ctx.Done():
		m.dropAck(ackID)
		return ctx.Err()
	}
}

func (m *Manager) dropAck(ackID string) {
	m.mu.Lock()
	delete(m.acks, ackID)
	m.mu.Unlock()
}

func (m *Manager) readLoop(tr transport) {
	for {
		f, err := tr.receive()
		if err != nil {
			m.handleConnectionLoss(tr, err)
			return
		}

		switch f.Type {
		case frameAck:
			m.mu.Lock()
			ch := m.acks[f.AckID]
			delete(m.acks, f.AckID)
			m.mu.Unlock()
			if ch != nil {
				ch <- f.Error
			}
		default:
			observability.IncRealtimeEvent(f.Type, "in")
			m.mu.Lock()
			h := m.handlers[f.Type]
			m.mu.Unlock()
			if h != nil {
				h(f.Data)
			}
		}
	}
}

// handleConnectionLoss runs when the transport dies underneath us. The only
// caller-visible symptom of an exhausted reconnect is silence; everything
// else is observability.
func (m *Manager) handleConnectionLoss(tr transport, cause error) {
	m.mu.Lock()
	if m.closed || m.tr != tr {
		m.mu.Unlock()
		return
	}
	m.connected = false
	m.tr = nil
	token := m.token
	userID := m.userID
	m.mu.Unlock()

	observability.SetRealtimeConnected(false)
	m.logger.Warn("realtime channel lost", zap.Error(cause))
	m.emitter.Emit(context.Background(), "disconnect", userID, map[string]any{"reason": cause.Error()})

	observability.IncRealtimeReconnect()
	if err := m.Connect(context.Background(), token); err != nil {
		m.logger.Error("realtime reconnect failed", zap.Error(err))
		return
	}

	if userID != "" {
		if err := m.Authenticate(context.Background(), userID); err != nil {
			m.logger.Error("realtime re-authentication failed", zap.Error(err))
		}
	}
}

func (m *Manager) currentUserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}
