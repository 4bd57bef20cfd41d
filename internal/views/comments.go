package views

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"social-client/internal/api"
	"social-client/internal/models"
)

// CommentService is the comment surface.
type CommentService interface {
	ListByPost(ctx context.Context, postID string, limit int, cursor string) ([]models.Comment, *api.Pagination, error)
	Create(ctx context.Context, postID, content, parentID string) (models.Comment, error)
	Delete(ctx context.Context, commentID string) error
	Like(ctx context.Context, commentID string) error
	Unlike(ctx context.Context, commentID string) error
}

// CommentsView presents one post's comment section.
type CommentsView struct {
	service CommentService
	logger  *zap.Logger
	postID  string
	limit   int

	mu         sync.Mutex
	items      []models.Comment
	nextCursor string
	hasMore    bool
}

// NewCommentsView builds an empty comment section for the given post.
func NewCommentsView(service CommentService, postID string, limit int, logger *zap.Logger) *CommentsView {
	return &CommentsView{service: service, postID: postID, limit: limit, logger: logger}
}

// Load replaces the section with the first page of comments.
func (v *CommentsView) Load(ctx context.Context) error {
	items, page, err := v.service.ListByPost(ctx, v.postID, v.limit, "")
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.items = items
	v.nextCursor, v.hasMore = cursorOf(page)
	v.mu.Unlock()
	return nil
}

// Add posts a comment (or a reply when parentID is set) and appends the
// confirmed record.
func (v *CommentsView) Add(ctx context.Context, content, parentID string) (models.Comment, error) {
	comment, err := v.service.Create(ctx, v.postID, content, parentID)
	if err != nil {
		return models.Comment{}, err
	}

	v.mu.Lock()
	v.items = append(v.items, comment)
	v.mu.Unlock()
	return comment, nil
}

// Delete removes a comment, patching the list only after success.
func (v *CommentsView) Delete(ctx context.Context, commentID string) error {
	if err := v.service.Delete(ctx, commentID); err != nil {
		return err
	}

	v.mu.Lock()
	filtered := v.items[:0]
	for _, c := range v.items {
		if c.ID != commentID {
			filtered = append(filtered, c)
		}
	}
	v.items = filtered
	v.mu.Unlock()
	return nil
}

// ToggleLike flips a comment's like state optimistically with rollback on
// failure, mirroring the feed behavior.
func (v *CommentsView) ToggleLike(ctx context.Context, commentID string) error {
	v.mu.Lock()
	idx := v.indexLocked(commentID)
	if idx < 0 {
		v.mu.Unlock()
		return fmt.Errorf("comment %s not loaded", commentID)
	}
	wasLiked := v.items[idx].IsLiked
	v.applyLikeLocked(idx, !wasLiked)
	v.mu.Unlock()

	var err error
	if wasLiked {
		err = v.service.Unlike(ctx, commentID)
	} else {
		err = v.service.Like(ctx, commentID)
	}
	if err == nil {
		return nil
	}

	v.mu.Lock()
	if idx := v.indexLocked(commentID); idx >= 0 {
		v.applyLikeLocked(idx, wasLiked)
	}
	v.mu.Unlock()
	v.logger.Warn("comment like rolled back", zap.String("comment_id", commentID), zap.Error(err))
	return err
}

// Comments returns a copy of the loaded comments.
func (v *CommentsView) Comments() []models.Comment {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]models.Comment, len(v.items))
	copy(items, v.items)
	return items
}

func (v *CommentsView) indexLocked(commentID string) int {
	for i, c := range v.items {
		if c.ID == commentID {
			return i
		}
	}
	return -1
}

func (v *CommentsView) applyLikeLocked(idx int, liked bool) {
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
