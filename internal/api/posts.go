package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"social-client/internal/models"
)

// Posts wraps the post-service endpoints.
type Posts struct {
	client *Client
}

// NewPosts constructs the wrapper.
func NewPosts(client *Client) *Posts {
	return &Posts{client: client}
}

// Feed returns one cursor page of the authenticated user's feed.
func (p *Posts) Feed(ctx context.Context, limit int, cursor string) ([]models.Post, *Pagination, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var posts []models.Post
	page, err := p.client.do(ctx, "posts", http.MethodGet, p.client.services.Posts+"/feed?"+params.Encode(), nil, &posts)
	if err != nil {
		return nil, nil, err
	}
	return posts, page, nil
}

// Create publishes a new post.
func (p *Posts) Create(ctx context.Context, content, mediaURL, visibility string) (models.Post, error) {
	if visibility == "" {
		visibility = "public"
	}
	body := map[string]string{"content": content, "visibility": visibility}
	if mediaURL != "" {
		body["mediaUrl"] = mediaURL
	}

	var post models.Post
	_, err := p.client.do(ctx, "posts", http.MethodPost, p.client.services.Posts, body, &post)
	return post, err
}

// Delete removes a post owned by the authenticated user.
func (p *Posts) Delete(ctx context.Context, postID string) error {
	_, err := p.client.do(ctx, "posts", http.MethodDelete, p.client.services.Posts+"/"+postID, nil, nil)
	return err
}

// Like marks a post as liked.
func (p *Posts) Like(ctx context.Context, postID string) error {
	_, err := p.client.do(ctx, "posts", http.MethodPost, p.client.services.Posts+"/"+postID+"/like", nil, nil)
	return err
}

// Unlike removes a like.
func (p *Posts) Unlike(ctx context.Context, postID string) error {
	_, err := p.client.do(ctx, "posts", http.MethodDelete, p.client.services.Posts+"/"+postID+"/like", nil, nil)
	return err
}
