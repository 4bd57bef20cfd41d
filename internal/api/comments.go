package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"social-client/internal/models"
)

// Comments wraps the comment-service endpoints.
type Comments struct {
	client *Client
}

// NewComments constructs the wrapper.
func NewComments(client *Client) *Comments {
	return &Comments{client: client}
}

// ListByPost returns one cursor page of a post's top-level comments.
func (c *Comments) ListByPost(ctx context.Context, postID string, limit int, cursor string) ([]models.Comment, *Pagination, error) {
	return c.list(ctx, url.Values{"postId": {postID}}, limit, cursor)
}

// Replies returns one cursor page of replies to a comment.
func (c *Comments) Replies(ctx context.Context, parentID string, limit int, cursor string) ([]models.Comment, *Pagination, error) {
	return c.list(ctx, url.Values{"parentId": {parentID}}, limit, cursor)
}

func (c *Comments) list(ctx context.Context, params url.Values, limit int, cursor string) ([]models.Comment, *Pagination, error) {
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var comments []models.Comment
	page, err := c.client.do(ctx, "comments", http.MethodGet, c.client.services.Comments+"?"+params.Encode(), nil, &comments)
	if err != nil {
		return nil, nil, err
	}
	return comments, page, nil
}

// Create adds a comment, optionally as a reply to parentID.
func (c *Comments) Create(ctx context.Context, postID, content, parentID string) (models.Comment, error) {
	body := map[string]string{"postId": postID, "content": content}
	if parentID != "" {
		body["parentId"] = parentID
	}

	var comment models.Comment
	_, err := c.client.do(ctx, "comments", http.MethodPost, c.client.services.Comments, body, &comment)
	return comment, err
}

// Delete removes a comment owned by the authenticated user.
func (c *Comments) Delete(ctx context.Context, commentID string) error {
	_, err := c.client.do(ctx, "comments", http.MethodDelete, c.client.services.Comments+"/"+commentID, nil, nil)
	return err
}

// Like marks a comment as liked.
func (c *Comments) Like(ctx context.Context, commentID string) error {
	_, err := c.client.do(ctx, "comments", http.MethodPost, c.client.services.Comments+"/"+commentID+"/like", nil, nil)
	return err
}

// Unlike removes a like.
func (c *Comments) Unlike(ctx context.Context, commentID string) error {
	_, err := c.client.do(ctx, "comments", http.MethodDelete, c.client.services.Comments+"/"+commentID+"/like", nil, nil)
	return err
}
