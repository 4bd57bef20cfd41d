package api

import (
	"context"
	"net/http"

	"social-client/internal/models"
)

// Users wraps the user-service profile endpoints.
type Users struct {
	client *Client
}

// NewUsers constructs the wrapper.
func NewUsers(client *Client) *Users {
	return &Users{client: client}
}

// Profile returns the public profile of the given user.
func (u *Users) Profile(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	_, err := u.client.do(ctx, "users", http.MethodGet, u.client.services.Users+"/"+userID, nil, &user)
	return user, err
}
