package api

import (
	"context"
	"net/http"
	"strconv"

	"social-client/internal/models"
)

// Notifications wraps the notification-service endpoints.
type Notifications struct {
	client *Client
}

// NewNotifications constructs the wrapper.
func NewNotifications(client *Client) *Notifications {
	return &Notifications{client: client}
}

// List returns the newest notifications, bounded by limit.
func (n *Notifications) List(ctx context.Context, limit int) ([]models.Notification, error) {
	var items []models.Notification
	url := n.client.services.Notifications + "?limit=" + strconv.Itoa(limit)
	_, err := n.client.do(ctx, "notifications", http.MethodGet, url, nil, &items)
	return items, err
}

// MarkRead marks one notification as read.
func (n *Notifications) MarkRead(ctx context.Context, notificationID string) error {
	url := n.client.services.Notifications + "/" + notificationID + "/read"
	_, err := n.client.do(ctx, "notifications", http.MethodPost, url, nil, nil)
	return err
}

// MarkAllRead marks every notification as read.
func (n *Notifications) MarkAllRead(ctx context.Context) error {
	_, err := n.client.do(ctx, "notifications", http.MethodPost, n.client.services.Notifications+"/read-all", nil, nil)
	return err
}
