// Package stubserver is an in-memory stand-in for every backend service the
// client talks to, served from a single gin router. It backs the end-to-end
// tests and the `stub-server` command for local development. It is a test
// double, not a product backend.
package stubserver

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"social-client/internal/models"
)

// Server holds the in-memory world: users, the follow graph, posts,
// comments, notifications, rooms and messages.
type Server struct {
	logger   *zap.Logger
	hub      *hub
	pollWait time.Duration

	mu            sync.Mutex
	seq           int
	users         map[string]models.User
	passwords     map[string]string          // email -> password
	tokens        map[string]string          // token -> user id
	follows       map[string]map[string]bool // follower -> followees
	posts         []models.Post
	postLikes     map[string]map[string]bool // post id -> likers
	comments      []models.Comment
	commentLikes  map[string]map[string]bool
	notifications map[string][]models.Notification // user id -> inbox
	rooms         []models.Room
	messages      map[string][]models.Message // room id -> chronological
}

// New builds an empty stub world.
func New(logger *zap.Logger) *Server {
	s := &Server{
		logger:        logger,
		pollWait:      25 * time.Second,
		users:         make(map[string]models.User),
		passwords:     make(map[string]string),
		tokens:        make(map[string]string),
		follows:       make(map[string]map[string]bool),
		postLikes:     make(map[string]map[string]bool),
		commentLikes:  make(map[string]map[string]bool),
		notifications: make(map[string][]models.Notification),
		messages:      make(map[string][]models.Message),
	}
	s.hub = newHub(logger)
	return s
}

// SetPollWait shortens the long-poll window; tests use this.
func (s *Server) SetPollWait(d time.Duration) {
	s.pollWait = d
}

// Router wires every endpoint of every stubbed service onto one engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	auth := s.authRequired()

	router.POST("/api/v1/auth/login", s.login)
	router.POST("/api/v1/auth/register", s.register)
	router.GET("/api/v1/users/me", auth, s.me)
	router.GET("/api/v1/users/:user_id", auth, s.profile)

	router.GET("/api/v1/posts/feed", auth, s.feed)
	router.POST("/api/v1/posts", auth, s.createPost)
	router.DELETE("/api/v1/posts/:post_id", auth, s.deletePost)
	router.POST("/api/v1/posts/:post_id/like", auth, s.likePost)
	router.DELETE("/api/v1/posts/:post_id/like", auth, s.unlikePost)

	router.GET("/api/v1/comments", auth, s.listComments)
	router.POST("/api/v1/comments", auth, s.createComment)
	router.DELETE("/api/v1/comments/:comment_id", auth, s.deleteComment)
	router.POST("/api/v1/comments/:comment_id/like", auth, s.likeComment)
	router.DELETE("/api/v1/comments/:comment_id/like", auth, s.unlikeComment)

	router.POST("/api/v1/follows/:user_id", auth, s.follow)
	router.DELETE("/api/v1/follows/:user_id", auth, s.unfollow)
	router.GET("/api/v1/follows/:user_id/status", auth, s.followStatus)
	router.GET("/api/v1/following/:user_id", auth, s.following)
	router.GET("/api/v1/followers/:user_id", auth, s.followers)

	router.GET("/api/v1/notifications", auth, s.listNotifications)
	router.POST("/api/v1/notifications/:notification_id/read", auth, s.markNotificationRead)
	router.POST("/api/v1/notifications/read-all", auth, s.markAllNotificationsRead)

	router.POST("/api/v1/media/upload", auth, s.uploadMedia)

	router.POST("/api/v1/chat/rooms", auth, s.createOrGetRoom)
	router.GET("/api/v1/chat/rooms/:room_id/messages", auth, s.roomMessages)
	router.POST("/api/v1/chat/rooms/:room_id/messages", auth, s.sendMessage)

	router.GET("/realtime/ws", s.handleWebsocket)
	router.GET("/realtime/poll", s.handlePoll)
	router.POST("/realtime/emit", s.handleEmit)

	return router
}

// ---- seeding, used by tests and the stub-server command ----

// SeedUser creates a user account and returns its profile.
func (s *Server) SeedUser(username, email, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := models.User{
		ID:       s.nextIDLocked("user"),
		Username: username,
		Email:    email,
	}
	s.users[user.ID] = user
	s.passwords[email] = password
	return user
}

// SeedFollow makes follower follow followee.
func (s *Server) SeedFollow(followerID, followeeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.followLocked(followerID, followeeID)
}

// SeedPost creates a post for the given author.
func (s *Server) SeedPost(authorID, content string) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := models.Post{
		ID:        s.nextIDLocked("post"),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.posts = append([]models.Post{post}, s.posts...)
	return post
}

// SeedNotification drops a notification into a user's inbox.
func (s *Server) SeedNotification(userID, kind, actorID, content string) models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := models.Notification{
		ID:        s.nextIDLocked("notif"),
		Type:      kind,
		ActorID:   actorID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.notifications[userID] = append([]models.Notification{n}, s.notifications[userID]...)
	return n
}

// ---- shared plumbing ----

func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			fail(c, http.StatusUnauthorized, "missing authorization")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			fail(c, http.StatusUnauthorized, "invalid authorization header")
			c.Abort()
			return
		}

		s.mu.Lock()
		userID, ok := s.tokens[parts[1]]
		s.mu.Unlock()
		if !ok {
			fail(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

func (s *Server) userIDForToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.tokens[token]
	return userID, ok
}

func (s *Server) nextIDLocked(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *Server) followLocked(followerID, followeeID string) {
	if s.follows[followerID] == nil {
		s.follows[followerID] = make(map[string]bool)
	}
	s.follows[followerID][followeeID] = true
}

// roomFor finds an existing room with exactly this participant set.
func (s *Server) roomForLocked(participants []string) (models.Room, bool) {
	key := participantKey(participants)
	for _, room := range s.rooms {
		if participantKey(room.Participants) == key {
			return room, true
		}
	}
	return models.Room{}, false
}

func participantKey(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

func newToken() string {
	return "stub-" + uuid.NewString()
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func okPage(c *gin.Context, data any, nextCursor string, hasMore bool) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"nextCursor": nextCursor,
			"hasMore":    hasMore,
		},
	})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
