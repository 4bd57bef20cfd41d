package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"social-client/internal/models"
	"social-client/internal/realtime"
)

// ChatService is the REST surface the controller consumes.
type ChatService interface {
	CreateOrGetRoom(ctx context.Context, participantIDs []string) (models.Room, error)
	RoomMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error)
	SendMessage(ctx context.Context, roomID, content string) (models.Message, error)
}

// Channel is the realtime surface the controller consumes.
type Channel interface {
	JoinRoom(ctx context.Context, roomID string) error
	LeaveRoom(ctx context.Context, roomID string) error
	Typing(ctx context.Context, roomID string) error
	Subscribe(event string, h realtime.Handler) error
	Unsubscribe(event string)
}

// State of the conversation controller.
type State int

const (
	// StateIdle means no peer is selected.
	StateIdle State = iota
	// StateRoomResolving means the room lookup/create is in flight.
	StateRoomResolving
	// StateRoomActive means the room is bound, history is loaded and the
	// controller is subscribed to its realtime events.
	StateRoomActive
)

func (s State) String() string {
	switch s {
	case StateRoomResolving:
		return "room_resolving"
	case StateRoomActive:
		return "room_active"
	default:
		return "idle"
	}
}

// ErrNoActiveRoom is returned from Send outside of StateRoomActive.
var ErrNoActiveRoom = errors.New("messaging: no active room")

const (
	defaultHistoryLimit = 50
	defaultTypingTTL    = 3 * time.Second
)

// Controller drives one two-pane conversation: it resolves the room for the
// selected peer, loads history, merges realtime pushes and performs
// optimistic sends. All mutation goes through its mutex; completions of
// requests that outlived the selection they belong to are discarded by a
// generation check instead of being cancelled.
type Controller struct {
	chat    ChatService
	channel Channel
	selfID  string
	logger  *zap.Logger

	historyLimit int
	typingTTL    time.Duration
	now          func() time.Time

	mu          sync.Mutex
	state       State
	peer        models.User
	roomID      string
	messages    []models.Message
	peerTyping  bool
	peerOnline  bool
	typingTimer *time.Timer
	generation  uint64
	onChange    func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithHistoryLimit bounds the fetched history page.
func WithHistoryLimit(limit int) Option {
	return func(c *Controller) { c.historyLimit = limit }
}

// WithTypingTTL overrides the typing-indicator auto-clear window.
func WithTypingTTL(ttl time.Duration) Option {
	return func(c *Controller) { c.typingTTL = ttl }
}

// WithClock overrides the clock used for provisional ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController builds an idle controller for the given authenticated user.
func NewController(chat ChatService, channel Channel, selfID string, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		chat:         chat,
		channel:      channel,
		selfID:       selfID,
		logger:       logger,
		historyLimit: defaultHistoryLimit,
		typingTTL:    defaultTypingTTL,
		now:          time.Now,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUpdate registers a callback invoked after every state change, so a front
// end can re-render. At most one callback; nil clears it.
func (c *Controller) OnUpdate(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Snapshot is a copy of the view-facing state.
type Snapshot struct {
	State      State
	Peer       models.User
	RoomID     string
	Messages   []models.Message
	PeerTyping bool
	PeerOnline bool
}

// Snapshot returns a copy of the current conversation state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	messages := make([]models.Message, len(c.messages))
	copy(messages, c.messages)
	return Snapshot{
		State:      c.state,
		Peer:       c.peer,
		RoomID:     c.roomID,
		Messages:   messages,
		PeerTyping: c.peerTyping,
		PeerOnline: c.peerOnline,
	}
}

// SelectPeer switches the conversation to the given peer: the previous room
// is left and its subscriptions released, then the room for {self, peer} is
// resolved, its history loaded (reversed to chronological order) and the new
// room joined. Exactly one room subscription is active at any time.
func (c *Controller) SelectPeer(ctx context.Context, peer models.User) error {
	c.teardown(ctx)

	c.mu.Lock()
	c.generation++
	generation := c.generation
	c.state = StateRoomResolving
	c.peer = peer
	c.mu.Unlock()
	c.notify()

	room, err := c.chat.CreateOrGetRoom(ctx, []string{c.selfID, peer.ID})
	if err != nil {
		c.failResolve(generation, err)
		return fmt.Errorf("resolve room: %w", err)
	}

	history, err := c.chat.RoomMessages(ctx, room.ID, c.historyLimit)
	if err != nil {
		c.failResolve(generation, err)
		return fmt.Errorf("load history: %w", err)
	}
	reverse(history)

	if err := c.channel.JoinRoom(ctx, room.ID); err != nil {
		c.failResolve(generation, err)
		return fmt.Errorf("join room: %w", err)
	}

	if err := c.subscribe(generation); err != nil {
		// the room was already joined; release it so the failed selection
		// leaves no half-open state behind
		if leaveErr := c.channel.LeaveRoom(ctx, room.ID); leaveErr != nil {
			c.logger.Warn("leave room failed", zap.String("room_id", room.ID), zap.Error(leaveErr))
		}
		c.failResolve(generation, err)
		return err
	}

	c.mu.Lock()
	if generation != c.generation {
		// a newer selection superseded this one mid-flight
		c.mu.Unlock()
		return nil
	}
	c.roomID = room.ID
	c.messages = history
	c.state = StateRoomActive
	c.mu.Unlock()
	c.notify()
	return nil
}

// Deselect returns the controller to Idle, leaving the current room.
func (c *Controller) Deselect(ctx context.Context) {
	c.teardown(ctx)

	c.mu.Lock()
	c.generation++
	c.state = StateIdle
	c.peer = models.User{}
	c.mu.Unlock()
	c.notify()
}

// Send performs an optimistic send: a provisional entry with a clock-derived
// temp id appears immediately; once the request settles the entry is removed
// and, on success, the confirmed message inserted unless the realtime push
// already delivered it. On failure the provisional entry is removed and the
// error returned; there is no retry.
func (c *Controller) Send(ctx context.Context, content string) (models.Message, error) {
	c.mu.Lock()
	if c.state != StateRoomActive {
		c.mu.Unlock()
		return models.Message{}, ErrNoActiveRoom
	}
	generation := c.generation
	roomID := c.roomID
	provisional := models.Message{
		ID:         fmt.Sprintf("%s%d", models.TempIDPrefix, c.now().UnixNano()),
		RoomID:     roomID,
		SenderID:   c.selfID,
		ReceiverID: c.peer.ID,
		Content:    content,
		CreatedAt:  c.now(),
	}
	c.messages = append(c.messages, provisional)
	c.mu.Unlock()
	c.notify()

	confirmed, err := c.chat.SendMessage(ctx, roomID, content)

	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		if err != nil {
			return models.Message{}, fmt.Errorf("send message: %w", err)
		}
		return confirmed, nil
	}

	c.removeLocked(provisional.ID)
	if err != nil {
		c.mu.Unlock()
		c.notify()
		return models.Message{}, fmt.Errorf("send message: %w", err)
	}
	if !c.containsLocked(confirmed.ID) {
		c.messages = append(c.messages, confirmed)
	}
	c.mu.Unlock()
	c.notify()
	return confirmed, nil
}

// InputChanged announces keystroke activity to the room. Failures are
// logged only; typing is best effort.
func (c *Controller) InputChanged(ctx context.Context) {
	c.mu.Lock()
	roomID := c.roomID
	active := c.state == StateRoomActive
	c.mu.Unlock()
	if !active {
		return
	}
	if err := c.channel.Typing(ctx, roomID); err != nil {
		c.logger.Debug("typing emit failed", zap.Error(err))
	}
}

func (c *Controller) subscribe(generation uint64) error {
	handlers := map[string]realtime.Handler{
		realtime.EventNewMessage:  func(data json.RawMessage) { c.handleNewMessage(generation, data) },
		realtime.EventUserTyping:  func(data json.RawMessage) { c.handleTyping(generation, data) },
		realtime.EventUserOnline:  func(data json.RawMessage) { c.handlePresence(generation, data, true) },
		realtime.EventUserOffline: func(data json.RawMessage) { c.handlePresence(generation, data, false) },
	}
	bound := make([]string, 0, len(handlers))
	for event, h := range handlers {
		if err := c.channel.Subscribe(event, h); err != nil {
			// unwind the handlers that did bind so a retry starts clean
			for _, b := range bound {
				c.channel.Unsubscribe(b)
			}
			return fmt.Errorf("subscribe %s: %w", event, err)
		}
		bound = append(bound, event)
	}
	return nil
}

// teardown releases the current room: leave, unsubscribe, stop timers.
func (c *Controller) teardown(ctx context.Context) {
	c.mu.Lock()
	roomID := c.roomID
	subscribed := c.state == StateRoomActive
	c.roomID = ""
	c.messages = nil
	c.peerTyping = false
	c.peerOnline = false
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
	c.mu.Unlock()

	if !subscribed {
		return
	}
	if err := c.channel.LeaveRoom(ctx, roomID); err != nil {
		c.logger.Warn("leave room failed", zap.String("room_id", roomID), zap.Error(err))
	}
	for _, event := range []string{
		realtime.EventNewMessage,
		realtime.EventUserTyping,
		realtime.EventUserOnline,
		realtime.EventUserOffline,
	} {
		c.channel.Unsubscribe(event)
	}
}

func (c *Controller) failResolve(generation uint64, cause error) {
	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.logger.Warn("conversation setup failed", zap.String("peer_id", c.peer.ID), zap.Error(cause))
	c.mu.Unlock()
	c.notify()
}

// handleNewMessage merges a realtime push. The event is accepted only when
// its sender or receiver is the selected peer, and the merge is idempotent
// by message id.
func (c *Controller) handleNewMessage(generation uint64, data json.RawMessage) {
	var event models.NewMessageEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logger.Warn("malformed new_message event", zap.Error(err))
		return
	}
	message := event.Message

	c.mu.Lock()
	if generation != c.generation || c.state != StateRoomActive {
		c.mu.Unlock()
		return
	}
	if message.SenderID != c.peer.ID && message.ReceiverID != c.peer.ID {
		c.mu.Unlock()
		return
	}
	if c.containsLocked(message.ID) {
		c.mu.Unlock()
		return
	}
	c.messages = append(c.messages, message)
	c.mu.Unlock()
	c.notify()
}

// handleTyping sets the transient "peer is typing" flag. Every accepted
// event restarts the auto-clear timer, so the flag drops typingTTL after
// the most recent event.
func (c *Controller) handleTyping(generation uint64, data json.RawMessage) {
	var event models.TypingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logger.Warn("malformed user_typing event", zap.Error(err))
		return
	}

	c.mu.Lock()
	if generation != c.generation || c.state != StateRoomActive {
		c.mu.Unlock()
		return
	}
	if event.RoomID != c.roomID || event.UserID == c.selfID {
		c.mu.Unlock()
		return
	}
	c.peerTyping = true
	if c.typingTimer != nil {
		c.typingTimer.Stop()
	}
	c.typingTimer = time.AfterFunc(c.typingTTL, func() {
		c.mu.Lock()
		if generation == c.generation {
			c.peerTyping = false
		}
		c.mu.Unlock()
		c.notify()
	})
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) handlePresence(generation uint64, data json.RawMessage, online bool) {
	var event models.PresenceEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return
	}

	c.mu.Lock()
	if generation != c.generation || event.UserID != c.peer.ID {
		c.mu.Unlock()
		return
	}
	c.peerOnline = online
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) containsLocked(id string) bool {
	for _, m := range c.messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (c *Controller) removeLocked(id string) {
	filtered := c.messages[:0]
	for _, m := range c.messages {
		if m.ID != id {
			filtered = append(filtered, m)
		}
	}
	c.messages = filtered
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func reverse(messages []models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
