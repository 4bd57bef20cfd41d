package models

import (
	"strings"
	"time"
)

// TempIDPrefix marks provisional message ids fabricated by the client.
// Server ids never carry the prefix, so the two id spaces stay disjoint.
const TempIDPrefix = "temp-"

// Room is a backend-issued conversation context between two users.
type Room struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Message is a direct message exchanged inside a room.
type Message struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId,omitempty"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Provisional reports whether the message is a client-side placeholder
// awaiting server confirmation.
func (m Message) Provisional() bool {
	return strings.HasPrefix(m.ID, TempIDPrefix)
}

// NewMessageEvent is the payload of the realtime "new_message" push.
type NewMessageEvent struct {
	Message Message `json:"message"`
}

// TypingEvent is the payload of the realtime "user_typing" push.
type TypingEvent struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
}

// PresenceEvent is the payload of "user_online" and "user_offline" pushes.
type PresenceEvent struct {
	UserID string `json:"userId"`
}
