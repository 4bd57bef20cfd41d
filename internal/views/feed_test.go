package views

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"social-client/internal/api"
	"social-client/internal/mocks"
	"social-client/internal/models"
)

func TestFeedLoadAndLoadMore(t *testing.T) {
	posts := new(mocks.PostServiceMock)
	view := NewFeedView(posts, nil, 2, zap.NewNop())

	posts.On("Feed", mock.Anything, 2, "").
		Return([]models.Post{{ID: "post-1"}, {ID: "post-2"}}, &api.Pagination{NextCursor: "2", HasMore: true}, nil).Once()
	posts.On("Feed", mock.Anything, 2, "2").
		Return([]models.Post{{ID: "post-3"}}, &api.Pagination{HasMore: false}, nil).Once()

	require.NoError(t, view.Load(context.Background()))
	require.NoError(t, view.LoadMore(context.Background()))

	items := view.Posts()
	require.Len(t, items, 3)
	assert.Equal(t, "post-3", items[2].ID)

	// exhausted cursor makes further LoadMore a no-op
	require.NoError(t, view.LoadMore(context.Background()))
	posts.AssertExpectations(t)
}

func TestFeedCreatePostWithAttachment(t *testing.T) {
	posts := new(mocks.PostServiceMock)
	media := new(mocks.MediaServiceMock)
	view := NewFeedView(posts, media, 20, zap.NewNop())

	media.On("Upload", mock.Anything, "cat.png", mock.Anything).
		Return("https://media.local/cat.png", nil).Once()
	posts.On("Create", mock.Anything, "look", "https://media.local/cat.png", "").
		Return(models.Post{ID: "post-1", Content: "look"}, nil).Once()

	post, err := view.CreatePost(context.Background(), "look", strings.NewReader("bytes"), "cat.png")
	require.NoError(t, err)
	assert.Equal(t, "post-1", post.ID)

	items := view.Posts()
	require.Len(t, items, 1)
	assert.Equal(t, "post-1", items[0].ID)
	posts.AssertExpectations(t)
	media.AssertExpectations(t)
}

func TestFeedCreatePostUploadFailure(t *testing.T) {
	posts := new(mocks.PostServiceMock)
	media := new(mocks.MediaServiceMock)
	view := NewFeedView(posts, media, 20, zap.NewNop())

	media.On("Upload", mock.Anything, "cat.png", mock.Anything).
		Return("", assert.AnError).Once()

	_, err := view.CreatePost(context.Background(), "look", strings.NewReader("bytes"), "cat.png")
	require.Error(t, err)
	assert.Empty(t, view.Posts())
	posts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFeedDeletePostPatchesAfterSuccessOnly(t *testing.T) {
	posts := new(mocks.PostServiceMock)
	view := NewFeedView(posts, nil, 20, zap.NewNop())

	posts.On("Feed", mock.Anything, 20, "").
		Return([]models.Post{{ID: "post-1"}, {ID: "post-2"}}, nil, nil).Once()
	require.NoError(t, view.Load(context.Background()))

	posts.On("Delete", mock.Anything, "post-1").Return(assert.AnError).Once()
	require.Error(t, view.DeletePost(context.Background(), "post-1"))
	assert.Len(t, view.Posts(), 2)

	posts.On("Delete", mock.Anything, "post-1").Return(nil).Once()
	require.NoError(t, view.DeletePost(context.Background(), "post-1"))

	items := view.Posts()
	require.Len(t, items, 1)
	assert.Equal(t, "post-2", items[0].ID)
}

func TestFeedToggleLikeOptimistic(t *testing.T) {
	posts := new(mocks.PostServiceMock)
	view := NewFeedView(posts, nil, 20, zap.NewNop())

	posts.On("Feed", mock.Anything, 20, "").
		Return([]models.Post{{ID: "post-1", LikeCount: 3}}, nil, nil).Once()
	require.NoError(t, view.Load(context.Background()))

	posts.On("Like", mock.Anything, "post-1").Return(nil).Once()
	require.NoError(t, view.ToggleLike(context.Background(), "post-1"))

	item := view.Posts()[0]
	assert.True(t, item.IsLiked)
	assert.Equal(t, 4, item.LikeCount)

	posts.On("Unlike", mock.Anything, "post-1").Return(nil).Once()
	require.NoError(t, view.ToggleLike(context.Background(), "post-1"))

	item = view.Posts()[0]
	assert.False(t, item.IsLiked)
	assert.Equal(t, 3, item.LikeCount)
	posts.AssertExpectations(t)
}

func TestFeedToggleLikeRollsBackOnFailure(t *testing.T) {
	posts := new(mocks.PostServiceMock)
	view := NewFeedView(posts, nil, 20, zap.NewNop())

	posts.On("Feed", mock.Anything, 20, "").
		Return([]models.Post{{ID: "post-1", LikeCount: 3}}, nil, nil).Once()
	require.NoError(t, view.Load(context.Background()))

	posts.On("Like", mock.Anything, "post-1").Return(assert.AnError).Once()
	require.Error(t, view.ToggleLike(context.Background(), "post-1"))

	// the optimistic flip is compensated, not left dangling
	item := view.Posts()[0]
	assert.False(t, item.IsLiked)
	assert.Equal(t, 3, item.LikeCount)
	posts.AssertExpectations(t)
}

func TestFeedToggleLikeUnknownPost(t *testing.T) {
	posts := new(mocks.PostServiceMock)
	view := NewFeedView(posts, nil, 20, zap.NewNop())

	require.Error(t, view.ToggleLike(context.Background(), "post-9"))
}
