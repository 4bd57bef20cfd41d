package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"social-client/internal/config"
)

// fakeGateway is a minimal realtime backend: it acks every acked frame and
// records what arrives, and can push frames to the connected client.
type fakeGateway struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conn     *websocket.Conn
	received []frame
	reject   map[string]string // frame type -> rejection reason
}

func (g *fakeGateway) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := g.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		g.mu.Lock()
		g.conn = conn
		g.mu.Unlock()

		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			g.mu.Lock()
			g.received = append(g.received, f)
			reason := g.reject[f.Type]
			g.mu.Unlock()

			if f.AckID != "" {
				conn.WriteJSON(frame{Type: frameAck, AckID: f.AckID, Error: reason})
			}
		}
	}
}

func (g *fakeGateway) push(t *testing.T, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	g.mu.Lock()
	conn := g.conn
	g.mu.Unlock()
	require.NotNil(t, conn)
	require.NoError(t, conn.WriteJSON(frame{Type: event, Data: data}))
}

func (g *fakeGateway) frames() []frame {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]frame, len(g.received))
	copy(out, g.received)
	return out
}

func newTestManager(t *testing.T) (*Manager, *fakeGateway) {
	t.Helper()
	gateway := &fakeGateway{reject: make(map[string]string)}
	server := httptest.NewServer(gateway.handler())
	t.Cleanup(server.Close)

	cfg := config.Realtime{
		URL:          "ws" + strings.TrimPrefix(server.URL, "http"),
		MaxRetries:   2,
		RetryBackoff: 5 * time.Millisecond,
		AckTimeout:   time.Second,
	}
	m := NewManager(cfg, zap.NewNop(), nil)
	t.Cleanup(func() { m.Close() })
	return m, gateway
}

func TestConnectIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Connect(context.Background(), "token-1"))
	require.NoError(t, m.Connect(context.Background(), "token-1"))
	assert.True(t, m.Connected())
}

func TestAuthenticateWaitsForAck(t *testing.T) {
	m, gateway := newTestManager(t)
	require.NoError(t, m.Connect(context.Background(), "token-1"))

	require.NoError(t, m.Authenticate(context.Background(), "user-1"))

	frames := gateway.frames()
	require.Len(t, frames, 1)
	assert.Equal(t, frameAuthenticate, frames[0].Type)
	assert.NotEmpty(t, frames[0].AckID)
}

func TestAuthenticateRejection(t *testing.T) {
	m, gateway := newTestManager(t)
	gateway.reject[frameAuthenticate] = "identity does not match token"
	require.NoError(t, m.Connect(context.Background(), "token-1"))

	err := m.Authenticate(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity does not match token")
}

func TestJoinRoomAckTimeout(t *testing.T) {
	gateway := &fakeGateway{reject: make(map[string]string)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := gateway.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// swallow frames without acking
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	cfg := config.Realtime{
		URL:          "ws" + strings.TrimPrefix(server.URL, "http"),
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
		AckTimeout:   30 * time.Millisecond,
	}
	m := NewManager(cfg, zap.NewNop(), nil)
	t.Cleanup(func() { m.Close() })

	require.NoError(t, m.Connect(context.Background(), "token-1"))
	assert.ErrorIs(t, m.JoinRoom(context.Background(), "room-1"), ErrAckTimeout)
}

func TestEmitBeforeConnect(t *testing.T) {
	m := NewManager(config.Realtime{MaxRetries: 1, RetryBackoff: time.Millisecond, AckTimeout: time.Second}, zap.NewNop(), nil)

	assert.ErrorIs(t, m.JoinRoom(context.Background(), "room-1"), ErrNotConnected)
	assert.ErrorIs(t, m.Typing(context.Background(), "room-1"), ErrNotConnected)
}

func TestSubscribeIsExclusive(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Subscribe(EventNewMessage, func(json.RawMessage) {}))
	assert.ErrorIs(t, m.Subscribe(EventNewMessage, func(json.RawMessage) {}), ErrHandlerBound)

	m.Unsubscribe(EventNewMessage)
	assert.NoError(t, m.Subscribe(EventNewMessage, func(json.RawMessage) {}))
}

func TestPushDispatchesToHandler(t *testing.T) {
	m, gateway := newTestManager(t)

	got := make(chan json.RawMessage, 1)
	require.NoError(t, m.Subscribe(EventUserTyping, func(data json.RawMessage) { got <- data }))
	require.NoError(t, m.Connect(context.Background(), "token-1"))
	require.NoError(t, m.Authenticate(context.Background(), "user-1"))

	gateway.push(t, EventUserTyping, map[string]string{"userId": "user-2", "roomId": "room-1"})

	select {
	case data := <-got:
		assert.Contains(t, string(data), "user-2")
	case <-time.After(time.Second):
		t.Fatal("handler never invoked")
	}
}

func TestCloseThenReconnect(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Connect(context.Background(), "token-1"))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.False(t, m.Connected())

	require.NoError(t, m.Connect(context.Background(), "token-1"))
	assert.True(t, m.Connected())
}

func TestCloseDuringConnectLeavesChannelClosed(t *testing.T) {
	gateway := &fakeGateway{reject: make(map[string]string)}
	dialing := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(dialing)
		// hold the handshake long enough for Close to land mid-dial
		time.Sleep(100 * time.Millisecond)
		gateway.handler()(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := config.Realtime{
		URL:          "ws" + strings.TrimPrefix(server.URL, "http"),
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
		AckTimeout:   time.Second,
	}
	m := NewManager(cfg, zap.NewNop(), nil)

	done := make(chan error, 1)
	go func() { done <- m.Connect(context.Background(), "token-1") }()

	<-dialing
	require.NoError(t, m.Close())

	require.NoError(t, <-done)
	assert.False(t, m.Connected(), "a Close issued while dialing must win over the dial")
}

func TestDialFallsBackToPolling(t *testing.T) {
	var polls int
	var emits int
	mu := sync.Mutex{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/poll"):
			mu.Lock()
			polls++
			first := polls == 1
			mu.Unlock()
			if !first {
				// emulate the long-poll window
				time.Sleep(50 * time.Millisecond)
			}
			w.Write([]byte("[]"))
		case strings.HasSuffix(r.URL.Path, "/emit"):
			var f frame
			json.NewDecoder(r.Body).Decode(&f)
			mu.Lock()
			emits++
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(server.Close)

	cfg := config.Realtime{
		URL:          "ws://127.0.0.1:1/realtime/ws", // nothing listens here
		PollURL:      server.URL + "/realtime",
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
		AckTimeout:   time.Second,
	}
	m := NewManager(cfg, zap.NewNop(), nil)
	t.Cleanup(func() { m.Close() })

	require.NoError(t, m.Connect(context.Background(), "token-1"))
	assert.True(t, m.Connected())

	require.NoError(t, m.Typing(context.Background(), "room-1"))
	mu.Lock()
	assert.Equal(t, 1, emits)
	mu.Unlock()
}
