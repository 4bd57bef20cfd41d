package realtime

import "encoding/json"

// Push events delivered by the chat service.
const (
	EventNewMessage  = "new_message"
	EventUserTyping  = "user_typing"
	EventUserOnline  = "user_online"
	EventUserOffline = "user_offline"
)

// Client-emitted frame types.
const (
	frameAuthenticate = "authenticate"
	frameJoinRoom     = "join_room"
	frameLeaveRoom    = "leave_room"
	frameTyping       = "typing"
	frameAck          = "ack"
)

// frame is the wire unit of the realtime channel, identical over both
// transports. Server replies to acked frames with Type "ack" echoing AckID;
// a non-empty Error means the request was rejected.
type frame struct {
	Type  string          `json:"type"`
	AckID string          `json:"ackId,omitempty"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}
