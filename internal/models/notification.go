package models

import "time"

// Notification types emitted by the notification service.
const (
	NotificationCommentOnPost  = "comment_on_post"
	NotificationReplyOnComment = "reply_on_comment"
	NotificationPostLiked      = "post_liked"
	NotificationCommentLiked   = "comment_liked"
	NotificationNewFollower    = "new_follower"
)

// Notification is a single entry in the notification inbox.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ActorID   string    `json:"actorId"`
	PostID    *string   `json:"postId"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
	Actor     *User     `json:"actor,omitempty"`
}
