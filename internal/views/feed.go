package views

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"social-client/internal/api"
	"social-client/internal/models"
)

// PostService is the post surface the feed consumes.
type PostService interface {
	Feed(ctx context.Context, limit int, cursor string) ([]models.Post, *api.Pagination, error)
	Create(ctx context.Context, content, mediaURL, visibility string) (models.Post, error)
	Delete(ctx context.Context, postID string) error
	Like(ctx context.Context, postID string) error
	Unlike(ctx context.Context, postID string) error
}

// MediaService uploads attachments.
type MediaService interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

// FeedView is the fetch-render-mutate controller behind the home timeline.
// The local list reflects the last successful server response or optimistic
// patch; errors surface to the caller and leave state unchanged, except
// ToggleLike which flips optimistically and rolls back on failure.
type FeedView struct {
	posts  PostService
	media  MediaService
	logger *zap.Logger
	limit  int

	mu         sync.Mutex
	items      []models.Post
	nextCursor string
	hasMore    bool
}

// NewFeedView builds an empty feed.
func NewFeedView(posts PostService, media MediaService, limit int, logger *zap.Logger) *FeedView {
	return &FeedView{posts: posts, media: media, limit: limit, logger: logger}
}

// Load replaces the feed with the first page.
func (v *FeedView) Load(ctx context.Context) error {
	items, page, err := v.posts.Feed(ctx, v.limit, "")
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.items = items
	v.nextCursor, v.hasMore = cursorOf(page)
	v.mu.Unlock()
	return nil
}

// LoadMore appends the next cursor page, if any.
func (v *FeedView) LoadMore(ctx context.Context) error {
	v.mu.Lock()
	cursor, hasMore := v.nextCursor, v.hasMore
	v.mu.Unlock()
	if !hasMore {
		return nil
	}

	items, page, err := v.posts.Feed(ctx, v.limit, cursor)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.items = append(v.items, items...)
	v.nextCursor, v.hasMore = cursorOf(page)
	v.mu.Unlock()
	return nil
}

// CreatePost publishes a post, uploading the attachment first when present,
// and prepends the confirmed post to the feed.
func (v *FeedView) CreatePost(ctx context.Context, content string, attachment io.Reader, filename string) (models.Post, error) {
	mediaURL := ""
	if attachment != nil {
		url, err := v.media.Upload(ctx, filename, attachment)
		if err != nil {
			return models.Post{}, fmt.Errorf("upload media: %w", err)
		}
		mediaURL = url
	}

	post, err := v.posts.Create(ctx, content, mediaURL, "")
	if err != nil {
		return models.Post{}, err
	}

	v.mu.Lock()
	v.items = append([]models.Post{post}, v.items...)
	v.mu.Unlock()
	return post, nil
}

// DeletePost removes a post, patching the list only after success.
func (v *FeedView) DeletePost(ctx context.Context, postID string) error {
	if err := v.posts.Delete(ctx, postID); err != nil {
		return err
	}

	v.mu.Lock()
	filtered := v.items[:0]
	for _, p := range v.items {
		if p.ID != postID {
			filtered = append(filtered, p)
		}
	}
	v.items = filtered
	v.mu.Unlock()
	return nil
}

// ToggleLike flips the like state optimistically, then settles the mutation.
// Failure applies the compensating flip so local state returns to the
// pre-toggle values.
func (v *FeedView) ToggleLike(ctx context.Context, postID string) error {
	v.mu.Lock()
	idx := v.indexLocked(postID)
	if idx < 0 {
		v.mu.Unlock()
		return fmt.Errorf("post %s not in feed", postID)
	}
	wasLiked := v.items[idx].IsLiked
	v.applyLikeLocked(idx, !wasLiked)
	v.mu.Unlock()

	var err error
	if wasLiked {
		err = v.posts.Unlike(ctx, postID)
	} else {
		err = v.posts.Like(ctx, postID)
	}
	if err == nil {
		return nil
	}

	v.mu.Lock()
	if idx := v.indexLocked(postID); idx >= 0 {
		v.applyLikeLocked(idx, wasLiked)
	}
	v.mu.Unlock()
	v.logger.Warn("like toggle rolled back", zap.String("post_id", postID), zap.Error(err))
	return err
}

// Posts returns a copy of the feed.
func (v *FeedView) Posts() []models.Post {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]models.Post, len(v.items))
	copy(items, v.items)
	return items
}

func (v *FeedView) indexLocked(postID string) int {
	for i, p := range v.items {
		if p.ID == postID {
			return i
		}
	}
	return -1
}

func (v *FeedView) applyLikeLocked(idx int, liked bool) {
	if v.items[idx].IsLiked == liked {
		return
	}
	v.items[idx].IsLiked = liked
	if liked {
		v.items[idx].LikeCount++
	} else {
		v.items[idx].LikeCount--
	}
}

func cursorOf(page *api.Pagination) (string, bool) {
	if page == nil {
		return "", false
	}
	return page.NextCursor, page.HasMore
}
