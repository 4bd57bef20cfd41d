package integration

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"social-client/internal/api"
	"social-client/internal/config"
	"social-client/internal/messaging"
	"social-client/internal/models"
	"social-client/internal/realtime"
	"social-client/internal/session"
	"social-client/internal/stubserver"
	"social-client/internal/views"
)

// world is one stub backend plus the config to reach it.
type world struct {
	stub     *stubserver.Server
	server   *httptest.Server
	services config.Services
	realtime config.Realtime
}

func newWorld(t *testing.T) *world {
	t.Helper()
	stub := stubserver.New(zap.NewNop())
	stub.SetPollWait(100 * time.Millisecond)
	server := httptest.NewServer(stub.Router())
	t.Cleanup(server.Close)

	return &world{
		stub:   stub,
		server: server,
		services: config.Services{
			Auth:          server.URL + "/api/v1/auth",
			Users:         server.URL + "/api/v1/users",
			Posts:         server.URL + "/api/v1/posts",
			Comments:      server.URL + "/api/v1/comments",
			Social:        server.URL + "/api/v1",
			Media:         server.URL + "/api/v1/media",
			Notifications: server.URL + "/api/v1/notifications",
			Chat:          server.URL + "/api/v1/chat",
		},
		realtime: config.Realtime{
			URL:          "ws" + strings.TrimPrefix(server.URL, "http") + "/realtime/ws",
			PollURL:      server.URL + "/realtime",
			MaxRetries:   2,
			RetryBackoff: 10 * time.Millisecond,
			AckTimeout:   2 * time.Second,
		},
	}
}

// actor is one logged-in client with its own session and service wrappers.
type actor struct {
	user          models.User
	store         *session.Store
	auth          *api.Auth
	users         *api.Users
	posts         *api.Posts
	social        *api.Social
	notifications *api.Notifications
	chat          *api.Chat
}

func (w *world) login(t *testing.T, email, password string) *actor {
	t.Helper()
	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	client := api.NewClient(w.services, store.Token, zap.NewNop())

	a := &actor{
		store:         store,
		auth:          api.NewAuth(client),
		users:         api.NewUsers(client),
		posts:         api.NewPosts(client),
		social:        api.NewSocial(client),
		notifications: api.NewNotifications(client),
		chat:          api.NewChat(client),
	}

	creds, err := a.auth.Login(context.Background(), email, password)
	require.NoError(t, err)
	require.NoError(t, store.SetSession(creds))
	a.user = creds.User
	return a
}

func (w *world) openConversation(t *testing.T, a *actor, peer models.User) *messaging.Controller {
	t.Helper()
	channel := realtime.NewManager(w.realtime, zap.NewNop(), nil)
	require.NoError(t, channel.Connect(context.Background(), a.store.Token()))
	t.Cleanup(func() { channel.Close() })
	require.NoError(t, channel.Authenticate(context.Background(), a.user.ID))

	controller := messaging.NewController(a.chat, channel, a.user.ID, zap.NewNop(),
		messaging.WithTypingTTL(200*time.Millisecond))
	require.NoError(t, controller.SelectPeer(context.Background(), peer))
	t.Cleanup(func() { controller.Deselect(context.Background()) })
	return controller
}

func TestLoginRejectsBadPassword(t *testing.T) {
	w := newWorld(t)
	w.stub.SeedUser("alice", "alice@example.com", "password")

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	client := api.NewClient(w.services, store.Token, zap.NewNop())

	_, err := api.NewAuth(client).Login(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
}

func TestStartupValidationClearsRejectedSession(t *testing.T) {
	w := newWorld(t)
	w.stub.SeedUser("alice", "alice@example.com", "password")

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	require.NoError(t, store.SetSession(models.Credentials{
		User:        models.User{ID: "user-1"},
		AccessToken: "stale-token",
	}))

	client := api.NewClient(w.services, store.Token, zap.NewNop())
	store.Validate(context.Background(), api.NewAuth(client))

	assert.False(t, store.Current().Authenticated)
}

func TestFeedLikeRoundTrip(t *testing.T) {
	w := newWorld(t)
	alice := w.stub.SeedUser("alice", "alice@example.com", "password")
	bob := w.stub.SeedUser("bob", "bob@example.com", "password")
	w.stub.SeedFollow(alice.ID, bob.ID)
	post := w.stub.SeedPost(bob.ID, "hello world")

	a := w.login(t, "alice@example.com", "password")
	feed := views.NewFeedView(a.posts, nil, 20, zap.NewNop())
	require.NoError(t, feed.Load(context.Background()))

	require.Len(t, feed.Posts(), 1)
	assert.Equal(t, post.ID, feed.Posts()[0].ID)
	assert.False(t, feed.Posts()[0].IsLiked)

	require.NoError(t, feed.ToggleLike(context.Background(), post.ID))

	// the like survives a full reload, so it reached the server
	reloaded := views.NewFeedView(a.posts, nil, 20, zap.NewNop())
	require.NoError(t, reloaded.Load(context.Background()))
	assert.True(t, reloaded.Posts()[0].IsLiked)
	assert.Equal(t, 1, reloaded.Posts()[0].LikeCount)
}

func TestProfileFollowRoundTrip(t *testing.T) {
	w := newWorld(t)
	w.stub.SeedUser("alice", "alice@example.com", "password")
	bob := w.stub.SeedUser("bob", "bob@example.com", "password")

	a := w.login(t, "alice@example.com", "password")
	profile := views.NewProfileView(a.users, a.social, zap.NewNop())
	require.NoError(t, profile.Load(context.Background(), bob.ID))
	assert.False(t, profile.Snapshot().IsFollowing)

	require.NoError(t, profile.Follow(context.Background()))

	reloaded := views.NewProfileView(a.users, a.social, zap.NewNop())
	require.NoError(t, reloaded.Load(context.Background(), bob.ID))
	assert.True(t, reloaded.Snapshot().IsFollowing)
	assert.Equal(t, 1, reloaded.Snapshot().Followers)
}

func TestContactsEmptyWhenFollowingNobody(t *testing.T) {
	w := newWorld(t)
	alice := w.stub.SeedUser("alice", "alice@example.com", "password")
	bob := w.stub.SeedUser("bob", "bob@example.com", "password")

	a := w.login(t, "alice@example.com", "password")
	contacts := views.NewContactsView(a.social)

	// a fresh account follows nobody; that renders as an empty prompt, not
	// a failure
	require.NoError(t, contacts.Load(context.Background(), alice.ID))
	assert.True(t, contacts.Empty())

	w.stub.SeedFollow(alice.ID, bob.ID)
	require.NoError(t, contacts.Load(context.Background(), alice.ID))
	assert.False(t, contacts.Empty())
	require.Len(t, contacts.Contacts(), 1)
	assert.Equal(t, bob.ID, contacts.Contacts()[0].ID)
}

func TestNotificationsRoundTrip(t *testing.T) {
	w := newWorld(t)
	alice := w.stub.SeedUser("alice", "alice@example.com", "password")
	bob := w.stub.SeedUser("bob", "bob@example.com", "password")
	w.stub.SeedNotification(alice.ID, models.NotificationNewFollower, bob.ID, "bob followed you")
	w.stub.SeedNotification(alice.ID, models.NotificationPostLiked, bob.ID, "bob liked your post")

	a := w.login(t, "alice@example.com", "password")
	inbox := views.NewNotificationsView(a.notifications, 50, zap.NewNop())
	require.NoError(t, inbox.Load(context.Background()))
	assert.Equal(t, 2, inbox.UnreadCount())

	require.NoError(t, inbox.MarkRead(context.Background(), inbox.Notifications()[0].ID))
	require.NoError(t, inbox.Load(context.Background()))
	assert.Equal(t, 1, inbox.UnreadCount())

	require.NoError(t, inbox.MarkAllRead(context.Background()))
	require.NoError(t, inbox.Load(context.Background()))
	assert.Zero(t, inbox.UnreadCount())
}

// An optimistic send settles into exactly one confirmed entry locally and
// arrives at the peer through the realtime channel.
func TestMessageDeliveryEndToEnd(t *testing.T) {
	w := newWorld(t)
	w.stub.SeedUser("alice", "alice@example.com", "password")
	w.stub.SeedUser("bob", "bob@example.com", "password")

	alice := w.login(t, "alice@example.com", "password")
	bob := w.login(t, "bob@example.com", "password")

	aliceConv := w.openConversation(t, alice, bob.user)
	bobConv := w.openConversation(t, bob, alice.user)

	sent, err := aliceConv.Send(context.Background(), "hi bob")
	require.NoError(t, err)
	assert.False(t, sent.Provisional())

	messages := aliceConv.Snapshot().Messages
	require.Len(t, messages, 1)
	assert.Equal(t, sent.ID, messages[0].ID)

	require.Eventually(t, func() bool {
		for _, m := range bobConv.Snapshot().Messages {
			if m.ID == sent.ID {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)

	// the push already merged on alice's side too; still exactly one entry
	assert.Len(t, aliceConv.Snapshot().Messages, 1)
}

func TestMessageHistoryIsChronological(t *testing.T) {
	w := newWorld(t)
	w.stub.SeedUser("alice", "alice@example.com", "password")
	w.stub.SeedUser("bob", "bob@example.com", "password")

	alice := w.login(t, "alice@example.com", "password")
	bob := w.login(t, "bob@example.com", "password")

	aliceConv := w.openConversation(t, alice, bob.user)
	first, err := aliceConv.Send(context.Background(), "first")
	require.NoError(t, err)
	second, err := aliceConv.Send(context.Background(), "second")
	require.NoError(t, err)

	// a fresh selection reloads history from the server
	bobConv := w.openConversation(t, bob, alice.user)
	messages := bobConv.Snapshot().Messages
	require.Len(t, messages, 2)
	assert.Equal(t, first.ID, messages[0].ID)
	assert.Equal(t, second.ID, messages[1].ID)
}

// Typing indicators propagate to the peer and clear on their own.
func TestTypingIndicatorEndToEnd(t *testing.T) {
	w := newWorld(t)
	w.stub.SeedUser("alice", "alice@example.com", "password")
	w.stub.SeedUser("bob", "bob@example.com", "password")

	alice := w.login(t, "alice@example.com", "password")
	bob := w.login(t, "bob@example.com", "password")

	aliceConv := w.openConversation(t, alice, bob.user)
	bobConv := w.openConversation(t, bob, alice.user)

	aliceConv.InputChanged(context.Background())

	require.Eventually(t, func() bool {
		return bobConv.Snapshot().PeerTyping
	}, 2*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		return !bobConv.Snapshot().PeerTyping
	}, 2*time.Second, 20*time.Millisecond)

	// the sender never sees their own indicator
	assert.False(t, aliceConv.Snapshot().PeerTyping)
}

// Switching conversations drops the old room: messages sent there no longer
// reach the switched client.
func TestRoomSwitchStopsOldRoomDelivery(t *testing.T) {
	w := newWorld(t)
	w.stub.SeedUser("alice", "alice@example.com", "password")
	w.stub.SeedUser("bob", "bob@example.com", "password")
	carol := w.stub.SeedUser("carol", "carol@example.com", "password")

	alice := w.login(t, "alice@example.com", "password")
	bob := w.login(t, "bob@example.com", "password")

	aliceConv := w.openConversation(t, alice, bob.user)
	bobConv := w.openConversation(t, bob, alice.user)

	// bob moves on to carol
	require.NoError(t, bobConv.SelectPeer(context.Background(), carol))
	assert.Equal(t, messaging.StateRoomActive, bobConv.Snapshot().State)

	_, err := aliceConv.Send(context.Background(), "are you still there?")
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, bobConv.Snapshot().Messages, "old-room traffic must not leak into the new conversation")
	assert.Equal(t, carol.ID, bobConv.Snapshot().Peer.ID)
}

func TestPresenceEndToEnd(t *testing.T) {
	w := newWorld(t)
	w.stub.SeedUser("alice", "alice@example.com", "password")
	w.stub.SeedUser("bob", "bob@example.com", "password")

	alice := w.login(t, "alice@example.com", "password")
	bob := w.login(t, "bob@example.com", "password")

	aliceConv := w.openConversation(t, alice, bob.user)

	// bob comes online after alice is already watching
	bobChannel := realtime.NewManager(w.realtime, zap.NewNop(), nil)
	require.NoError(t, bobChannel.Connect(context.Background(), bob.store.Token()))
	t.Cleanup(func() { bobChannel.Close() })
	require.NoError(t, bobChannel.Authenticate(context.Background(), bob.user.ID))

	require.Eventually(t, func() bool {
		return aliceConv.Snapshot().PeerOnline
	}, 2*time.Second, 20*time.Millisecond)
}
