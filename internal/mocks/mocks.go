package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"social-client/internal/api"
	"social-client/internal/models"
	"social-client/internal/realtime"
)

type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) CreateOrGetRoom(ctx context.Context, participantIDs []string) (models.Room, error) {
	args := m.Called(ctx, participantIDs)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *ChatServiceMock) RoomMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, roomID, limit)
	var messages []models.Message
	if val := args.Get(0); val != nil {
		messages = val.([]models.Message)
	}
	return messages, args.Error(1)
}

func (m *ChatServiceMock) SendMessage(ctx context.Context, roomID, content string) (models.Message, error) {
	args := m.Called(ctx, roomID, content)
	var message models.Message
	if val := args.Get(0); val != nil {
		message = val.(models.Message)
	}
	return message, args.Error(1)
}

type ChannelMock struct {
	mock.Mock

	handlers map[string]realtime.Handler
}

func (m *ChannelMock) JoinRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *ChannelMock) LeaveRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *ChannelMock) Typing(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *ChannelMock) Subscribe(event string, h realtime.Handler) error {
	args := m.Called(event, h)
	if err := args.Error(0); err != nil {
		return err
	}
	if m.handlers == nil {
		m.handlers = make(map[string]realtime.Handler)
	}
	m.handlers[event] = h
	return nil
}

func (m *ChannelMock) Unsubscribe(event string) {
	m.Called(event)
	delete(m.handlers, event)
}

// Push invokes the handler registered for event, as the live channel would
// on an incoming frame.
func (m *ChannelMock) Push(event string, data []byte) {
	if h, ok := m.handlers[event]; ok {
		h(data)
	}
}

type PostServiceMock struct {
	mock.Mock
}

func (m *PostServiceMock) Feed(ctx context.Context, limit int, cursor string) ([]models.Post, *api.Pagination, error) {
	args := m.Called(ctx, limit, cursor)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	var page *api.Pagination
	if val := args.Get(1); val != nil {
		page = val.(*api.Pagination)
	}
	return posts, page, args.Error(2)
}

func (m *PostServiceMock) Create(ctx context.Context, content, mediaURL, visibility string) (models.Post, error) {
	args := m.Called(ctx, content, mediaURL, visibility)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostServiceMock) Delete(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *PostServiceMock) Like(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *PostServiceMock) Unlike(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

type MediaServiceMock struct {
	mock.Mock
}

func (m *MediaServiceMock) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	args := m.Called(ctx, filename, content)
	return args.String(0), args.Error(1)
}

type UserServiceMock struct {
	mock.Mock
}

func (m *UserServiceMock) Profile(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserServiceMock) Me(ctx context.Context) (models.User, error) {
	args := m.Called(ctx)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type SocialServiceMock struct {
	mock.Mock
}

func (m *SocialServiceMock) Follow(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *SocialServiceMock) Unfollow(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *SocialServiceMock) IsFollowing(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *SocialServiceMock) Following(ctx context.Context, userID string) ([]models.User, error) {
	args := m.Called(ctx, userID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *SocialServiceMock) Followers(ctx context.Context, userID string) ([]models.User, error) {
	args := m.Called(ctx, userID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type NotificationServiceMock struct {
	mock.Mock
}

func (m *NotificationServiceMock) List(ctx context.Context, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, limit)
	var items []models.Notification
	if val := args.Get(0); val != nil {
		items = val.([]models.Notification)
	}
	return items, args.Error(1)
}

func (m *NotificationServiceMock) MarkRead(ctx context.Context, notificationID string) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *NotificationServiceMock) MarkAllRead(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type CommentServiceMock struct {
	mock.Mock
}

func (m *CommentServiceMock) ListByPost(ctx context.Context, postID string, limit int, cursor string) ([]models.Comment, *api.Pagination, error) {
	args := m.Called(ctx, postID, limit, cursor)
	var comments []models.Comment
	if val := args.Get(0); val != nil {
		comments = val.([]models.Comment)
	}
	var page *api.Pagination
	if val := args.Get(1); val != nil {
		page = val.(*api.Pagination)
	}
	return comments, page, args.Error(2)
}

func (m *CommentServiceMock) Create(ctx context.Context, postID, content, parentID string) (models.Comment, error) {
	args := m.Called(ctx, postID, content, parentID)
	var comment models.Comment
	if val := args.Get(0); val != nil {
		comment = val.(models.Comment)
	}
	return comment, args.Error(1)
}

func (m *CommentServiceMock) Delete(ctx context.Context, commentID string) error {
	args := m.Called(ctx, commentID)
	return args.Error(0)
}

func (m *CommentServiceMock) Like(ctx context.Context, commentID string) error {
	args := m.Called(ctx, commentID)
	return args.Error(0)
}

func (m *CommentServiceMock) Unlike(ctx context.Context, commentID string) error {
	args := m.Called(ctx, commentID)
	return args.Error(0)
}
