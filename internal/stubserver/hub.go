package stubserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"social-client/internal/models"
)

// rtFrame mirrors the realtime wire frame the client speaks.
type rtFrame struct {
	Type  string          `json:"type"`
	AckID string          `json:"ackId,omitempty"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// hubClient is one connected realtime client, websocket or polling.
type hubClient struct {
	id          string
	tokenUserID string
	userID      string
	rooms       map[string]bool
	outbox      chan rtFrame
}

// hub tracks connected realtime clients and fans events out to them.
type hub struct {
	logger  *zap.Logger
	mu      sync.Mutex
	clients map[string]*hubClient
}

func newHub(logger *zap.Logger) *hub {
	return &hub{
		logger:  logger,
		clients: make(map[string]*hubClient),
	}
}

func (h *hub) register(clientID, tokenUserID string) *hubClient {
	client := &hubClient{
		id:          clientID,
		tokenUserID: tokenUserID,
		rooms:       make(map[string]bool),
		outbox:      make(chan rtFrame, 64),
	}
	h.mu.Lock()
	h.clients[clientID] = client
	h.mu.Unlock()
	return client
}

func (h *hub) unregister(client *hubClient) {
	h.mu.Lock()
	delete(h.clients, client.id)
	userID := client.userID
	h.mu.Unlock()

	if userID != "" {
		h.broadcastPresence(userID, false)
	}
}

func (h *hub) lookup(clientID string) *hubClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients[clientID]
}

// handleFrame processes one client-emitted frame. Frames carrying an ackId
// always produce an ack reply, with Error set on rejection.
func (h *hub) handleFrame(client *hubClient, f rtFrame) {
	switch f.Type {
	case "authenticate":
		var payload struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(f.Data, &payload); err != nil {
			h.ack(client, f.AckID, "malformed authenticate payload")
			return
		}
		if payload.UserID != client.tokenUserID {
			h.ack(client, f.AckID, "identity does not match token")
			return
		}

		h.mu.Lock()
		client.userID = payload.UserID
		h.mu.Unlock()
		h.ack(client, f.AckID, "")
		h.broadcastPresence(payload.UserID, true)

	case "join_room":
		roomID, err := roomIDOf(f.Data)
		if err != nil {
			h.ack(client, f.AckID, "malformed join payload")
			return
		}
		h.mu.Lock()
		client.rooms[roomID] = true
		h.mu.Unlock()
		h.ack(client, f.AckID, "")

	case "leave_room":
		roomID, err := roomIDOf(f.Data)
		if err != nil {
			h.ack(client, f.AckID, "malformed leave payload")
			return
		}
		h.mu.Lock()
		delete(client.rooms, roomID)
		h.mu.Unlock()
		h.ack(client, f.AckID, "")

	case "typing":
		roomID, err := roomIDOf(f.Data)
		if err != nil {
			return
		}
		h.mu.Lock()
		userID := client.userID
		h.mu.Unlock()
		if userID == "" {
			return
		}
		h.broadcastToRoom(roomID, client.id, "user_typing", models.TypingEvent{
			UserID: userID,
			RoomID: roomID,
		})

	default:
		h.logger.Warn("unknown realtime frame", zap.String("type", f.Type))
		if f.AckID != "" {
			h.ack(client, f.AckID, "unknown frame type "+f.Type)
		}
	}
}

func (h *hub) ack(client *hubClient, ackID, errMsg string) {
	if ackID == "" {
		return
	}
	h.deliver(client, rtFrame{Type: "ack", AckID: ackID, Error: errMsg})
}

// broadcastNewMessage pushes a confirmed message to every client joined to
// the room, the sender's own connections included.
func (h *hub) broadcastNewMessage(roomID string, message models.Message) {
	h.mu.Lock()
	targets := make([]*hubClient, 0)
	for _, client := range h.clients {
		if client.rooms[roomID] {
			targets = append(targets, client)
		}
	}
	h.mu.Unlock()

	for _, client := range targets {
		h.push(client, "new_message", models.NewMessageEvent{Message: message})
	}
}

func (h *hub) broadcastPresence(userID string, online bool) {
	event := "user_online"
	if !online {
		event = "user_offline"
	}

	h.mu.Lock()
	targets := make([]*hubClient, 0)
	for _, client := range h.clients {
		if client.userID != "" && client.userID != userID {
			targets = append(targets, client)
		}
	}
	h.mu.Unlock()

	for _, client := range targets {
		h.push(client, event, models.PresenceEvent{UserID: userID})
	}
}

func (h *hub) broadcastToRoom(roomID, excludeClientID, event string, payload any) {
	h.mu.Lock()
	targets := make([]*hubClient, 0)
	for _, client := range h.clients {
		if client.id != excludeClientID && client.rooms[roomID] {
			targets = append(targets, client)
		}
	}
	h.mu.Unlock()

	for _, client := range targets {
		h.push(client, event, payload)
	}
}

func (h *hub) push(client *hubClient, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal realtime payload", zap.Error(err))
		return
	}
	h.deliver(client, rtFrame{Type: event, Data: data})
}

func (h *hub) deliver(client *hubClient, f rtFrame) {
	select {
	case client.outbox <- f:
	default:
		h.logger.Warn("realtime outbox full, dropping frame",
			zap.String("client", client.id),
			zap.String("type", f.Type))
	}
}

// ---- transport endpoints ----

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func (s *Server) handleWebsocket(c *gin.Context) {
	token := c.Query("token")
	userID, known := s.userIDForToken(token)
	if !known {
		fail(c, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := s.hub.register(newToken(), userID)
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case f := <-client.outbox:
				if err := conn.WriteJSON(f); err != nil {
					return
				}
			case <-stop:
				return
			}
		}
	}()

	for {
		var f rtFrame
		if err := conn.ReadJSON(&f); err != nil {
			break
		}
		s.hub.handleFrame(client, f)
	}

	s.hub.unregister(client)
	close(stop)
	conn.Close()
}

func (s *Server) handlePoll(c *gin.Context) {
	token := bearerToken(c)
	userID, known := s.userIDForToken(token)
	if !known {
		fail(c, http.StatusUnauthorized, "invalid token")
		return
	}

	clientID := c.Query("client")
	if clientID == "" {
		fail(c, http.StatusBadRequest, "missing client id")
		return
	}

	client := s.hub.lookup(clientID)
	if client == nil {
		if c.Query("register") == "" {
			fail(c, http.StatusNotFound, "unknown client")
			return
		}
		client = s.hub.register(clientID, userID)
		// registration poll returns immediately so the dial can settle
		c.JSON(http.StatusOK, []rtFrame{})
		return
	}

	frames := make([]rtFrame, 0)
	select {
	case f := <-client.outbox:
		frames = append(frames, f)
	case <-time.After(s.pollWait):
		c.JSON(http.StatusOK, frames)
		return
	case <-c.Request.Context().Done():
		return
	}

	for {
		select {
		case f := <-client.outbox:
			frames = append(frames, f)
		default:
			c.JSON(http.StatusOK, frames)
			return
		}
	}
}

func (s *Server) handleEmit(c *gin.Context) {
	token := bearerToken(c)
	if _, known := s.userIDForToken(token); !known {
		fail(c, http.StatusUnauthorized, "invalid token")
		return
	}

	client := s.hub.lookup(c.Query("client"))
	if client == nil {
		fail(c, http.StatusNotFound, "unknown client")
		return
	}

	var f rtFrame
	if err := c.ShouldBindJSON(&f); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s.hub.handleFrame(client, f)
	ok(c, gin.H{"accepted": true})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) {
		return header[len(prefix):]
	}
	return ""
}

func roomIDOf(data json.RawMessage) (string, error) {
	var payload struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", err
	}
	return payload.RoomID, nil
}
