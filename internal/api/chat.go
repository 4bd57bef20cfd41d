package api

import (
	"context"
	"net/http"
	"strconv"

	"social-client/internal/models"
)

// Chat wraps the chat service's REST endpoints. The realtime push side lives
// in the realtime package.
type Chat struct {
	client *Client
}

// NewChat constructs the wrapper.
func NewChat(client *Client) *Chat {
	return &Chat{client: client}
}

// CreateOrGetRoom resolves the conversation room for the given participant
// set, creating it on first use. Find-or-create lives on the backend.
func (c *Chat) CreateOrGetRoom(ctx context.Context, participantIDs []string) (models.Room, error) {
	var room models.Room
	body := map[string][]string{"participants": participantIDs}
	_, err := c.client.do(ctx, "chat", http.MethodPost, c.client.services.Chat+"/rooms", body, &room)
	return room, err
}

// RoomMessages returns the room's history, most recent first, bounded by
// limit. Callers reverse it for chronological display.
func (c *Chat) RoomMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	var messages []models.Message
	url := c.client.services.Chat + "/rooms/" + roomID + "/messages?limit=" + strconv.Itoa(limit)
	_, err := c.client.do(ctx, "chat", http.MethodGet, url, nil, &messages)
	return messages, err
}

// SendMessage persists a message and returns the confirmed record with its
// server-assigned id.
func (c *Chat) SendMessage(ctx context.Context, roomID, content string) (models.Message, error) {
	var message models.Message
	body := map[string]string{"content": content}
	url := c.client.services.Chat + "/rooms/" + roomID + "/messages"
	_, err := c.client.do(ctx, "chat", http.MethodPost, url, body, &message)
	return message, err
}
