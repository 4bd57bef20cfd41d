package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"social-client/internal/config"
	"social-client/internal/models"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	services := config.Services{
		Auth:     server.URL + "/auth",
		Users:    server.URL + "/users",
		Posts:    server.URL + "/posts",
		Social:   server.URL,
		Comments: server.URL + "/comments",
	}
	client := NewClient(services, func() string { return "test-token" }, zap.NewNop())
	return client, server
}

func TestDoDecodesEnvelopeAndSendsBearer(t *testing.T) {
	var gotAuth string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    models.User{ID: "user-1", Username: "alice"},
		})
	}))

	user, err := NewUsers(client).Profile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestDoReturnsPagination(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"data":       []models.Post{{ID: "post-1"}},
			"pagination": map[string]any{"nextCursor": "abc", "hasMore": true},
		})
	}))

	posts, page, err := NewPosts(client).Feed(context.Background(), 20, "")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.NotNil(t, page)
	assert.Equal(t, "abc", page.NextCursor)
	assert.True(t, page.HasMore)
}

func TestDoErrorStatusCarriesServicePayload(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "invalid credentials"})
	}))

	_, err := NewAuth(client).Login(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "auth", apiErr.Service)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid credentials", apiErr.Message)
}

func TestDoErrorStatusWithoutEnvelope(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))

	_, err := NewUsers(client).Profile(context.Background(), "user-1")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Message)
}

func TestDoMalformedSuccessBody(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))

	_, err := NewUsers(client).Profile(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed response")
}

func TestDoMissingDataOnSuccess(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))

	_, err := NewUsers(client).Profile(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing data")
}

func TestDoTransportError(t *testing.T) {
	client, server := testClient(t, http.NotFoundHandler())
	server.Close()

	_, err := NewUsers(client).Profile(context.Background(), "user-1")
	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr), "transport failures are not service errors")
}

func TestCommentsRepliesFiltersByParent(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comments", r.URL.Path)
		assert.Equal(t, "comment-1", r.URL.Query().Get("parentId"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		parent := "comment-1"
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    []models.Comment{{ID: "comment-2", ParentID: &parent, Content: "reply"}},
		})
	}))

	replies, _, err := NewComments(client).Replies(context.Background(), "comment-1", 20, "")
	require.NoError(t, err)
	require.Len(t, replies, 1)
	require.NotNil(t, replies[0].ParentID)
	assert.Equal(t, "comment-1", *replies[0].ParentID)
}

func TestSocialIsFollowing(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/follows/user-2/status", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]bool{"following": true},
		})
	}))

	following, err := NewSocial(client).IsFollowing(context.Background(), "user-2")
	require.NoError(t, err)
	assert.True(t, following)
}
