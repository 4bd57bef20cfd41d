package views

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"social-client/internal/models"
)

// NotificationService is the inbox surface.
type NotificationService interface {
	List(ctx context.Context, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context) error
}

// NotificationsView presents the notification inbox with an unread count.
type NotificationsView struct {
	service NotificationService
	logger  *zap.Logger
	limit   int

	mu    sync.Mutex
	items []models.Notification
}

// NewNotificationsView builds an empty inbox.
func NewNotificationsView(service NotificationService, limit int, logger *zap.Logger) *NotificationsView {
	return &NotificationsView{service: service, limit: limit, logger: logger}
}

// Load replaces the inbox with the newest notifications.
func (v *NotificationsView) Load(ctx context.Context) error {
	items, err := v.service.List(ctx, v.limit)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.items = items
	v.mu.Unlock()
	return nil
}

// MarkRead marks one notification read, patching local state on success.
func (v *NotificationsView) MarkRead(ctx context.Context, notificationID string) error {
	if err := v.service.MarkRead(ctx, notificationID); err != nil {
		return err
	}

	v.mu.Lock()
	for i := range v.items {
		if v.items[i].ID == notificationID {
			v.items[i].IsRead = true
			break
		}
	}
	v.mu.Unlock()
	return nil
}

// MarkAllRead marks every notification read, patching local state on success.
func (v *NotificationsView) MarkAllRead(ctx context.Context) error {
	if err := v.service.MarkAllRead(ctx); err != nil {
		return err
	}

	v.mu.Lock()
	for i := range v.items {
		v.items[i].IsRead = true
	}
	v.mu.Unlock()
	return nil
}

// Notifications returns a copy of the inbox.
func (v *NotificationsView) Notifications() []models.Notification {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]models.Notification, len(v.items))
	copy(items, v.items)
	return items
}

// UnreadCount returns the number of unread notifications.
func (v *NotificationsView) UnreadCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	count := 0
	for _, n := range v.items {
		if !n.IsRead {
			count++
		}
	}
	return count
}
