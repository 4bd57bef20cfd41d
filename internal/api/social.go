package api

import (
	"context"
	"net/http"

	"social-client/internal/models"
)

// Social wraps the follow-graph endpoints of the social service.
type Social struct {
	client *Client
}

// NewSocial constructs the wrapper.
func NewSocial(client *Client) *Social {
	return &Social{client: client}
}

// Follow starts following the target user.
func (s *Social) Follow(ctx context.Context, userID string) error {
	_, err := s.client.do(ctx, "social", http.MethodPost, s.client.services.Social+"/follows/"+userID, nil, nil)
	return err
}

// Unfollow stops following the target user.
func (s *Social) Unfollow(ctx context.Context, userID string) error {
	_, err := s.client.do(ctx, "social", http.MethodDelete, s.client.services.Social+"/follows/"+userID, nil, nil)
	return err
}

// IsFollowing reports whether the authenticated user follows the target.
func (s *Social) IsFollowing(ctx context.Context, userID string) (bool, error) {
	var status struct {
		Following bool `json:"following"`
	}
	_, err := s.client.do(ctx, "social", http.MethodGet, s.client.services.Social+"/follows/"+userID+"/status", nil, &status)
	return status.Following, err
}

// Following lists the users the target user follows.
func (s *Social) Following(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	_, err := s.client.do(ctx, "social", http.MethodGet, s.client.services.Social+"/following/"+userID, nil, &users)
	return users, err
}

// Followers lists the users following the target user.
func (s *Social) Followers(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	_, err := s.client.do(ctx, "social", http.MethodGet, s.client.services.Social+"/followers/"+userID, nil, &users)
	return users, err
}
