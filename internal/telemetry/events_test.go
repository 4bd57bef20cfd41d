package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"social-client/internal/mocks"
	"social-client/internal/telemetry"
)

func TestEmitPublishesLifecycleEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewEmitter(publisher, "test", zap.NewNop())

	var published telemetry.Envelope
	publisher.On("Publish", mock.Anything, "client_events.realtime", mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).(telemetry.Envelope) }).
		Return(nil).Once()

	emitter.Emit(context.Background(), "connected", "user-1", map[string]any{"attempt": 1})

	publisher.AssertExpectations(t)
	assert.Equal(t, 1, published.SchemaVersion)
	assert.Equal(t, "realtime_lifecycle", published.EventType)
	assert.Equal(t, "connected", published.EventName)
	assert.Equal(t, "social-client", published.Service)
	assert.Equal(t, "test", published.Environment)
	assert.Equal(t, "user-1", published.UserID)
	assert.Equal(t, map[string]any{"attempt": 1}, published.Payload)

	occurred, err := time.Parse(time.RFC3339Nano, published.OccurredAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), occurred, time.Minute)
}

func TestEmitSwallowsPublishFailure(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewEmitter(publisher, "test", zap.NewNop())

	publisher.On("Publish", mock.Anything, "client_events.realtime", mock.Anything).
		Return(assert.AnError).Once()

	// must not panic or propagate; telemetry is observability only
	emitter.Emit(context.Background(), "disconnected", "user-1", nil)
	publisher.AssertExpectations(t)
}

func TestEmitWithoutPublisherIsNoop(t *testing.T) {
	emitter := telemetry.NewEmitter(nil, "test", zap.NewNop())
	emitter.Emit(context.Background(), "connected", "user-1", nil)

	var nilEmitter *telemetry.Emitter
	nilEmitter.Emit(context.Background(), "connected", "user-1", nil)
}

func TestNewPublisherWithoutBrokerIsNoop(t *testing.T) {
	publisher := telemetry.NewPublisher("", "client_events", zap.NewNop())
	require.NoError(t, publisher.Publish(context.Background(), "client_events.realtime", telemetry.Envelope{}))
	require.NoError(t, publisher.Close())
}
