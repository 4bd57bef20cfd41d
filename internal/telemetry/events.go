package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const routingKeyRealtime = "client_events.realtime"

// Envelope wraps every published telemetry event.
type Envelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	EventName     string `json:"event_name"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	UserID        string `json:"user_id,omitempty"`
	Payload       any    `json:"payload,omitempty"`
}

// Emitter publishes realtime lifecycle events (connect, disconnect, errors).
// Strictly observability: emission failures are logged and swallowed.
type Emitter struct {
	publisher   Publisher
	environment string
	logger      *zap.Logger
}

// NewEmitter builds an Emitter. A nil publisher disables emission.
func NewEmitter(publisher Publisher, environment string, logger *zap.Logger) *Emitter {
	return &Emitter{publisher: publisher, environment: environment, logger: logger}
}

// Emit publishes one realtime lifecycle event.
func (e *Emitter) Emit(ctx context.Context, eventName, userID string, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     "realtime_lifecycle",
		EventName:     eventName,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       "social-client",
		Environment:   e.environment,
		UserID:        userID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, routingKeyRealtime, envelope); err != nil {
		e.logger.Warn("telemetry publish failed", zap.String("event", eventName), zap.Error(err))
	}
}
