package api

import (
	"context"
	"net/http"

	"social-client/internal/models"
)

// Auth wraps the auth-service endpoints. Login and Register are issued
// without a session; Me validates the stored bearer token.
type Auth struct {
	client *Client
}

// NewAuth constructs the wrapper.
func NewAuth(client *Client) *Auth {
	return &Auth{client: client}
}

// RegisterParams is the registration request payload.
type RegisterParams struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Login exchanges credentials for tokens and the user profile.
func (a *Auth) Login(ctx context.Context, email, password string) (models.Credentials, error) {
	var creds models.Credentials
	body := map[string]string{"email": email, "password": password}
	_, err := a.client.do(ctx, "auth", http.MethodPost, a.client.services.Auth+"/login", body, &creds)
	return creds, err
}

// Register creates an account and returns tokens plus the new profile.
func (a *Auth) Register(ctx context.Context, params RegisterParams) (models.Credentials, error) {
	var creds models.Credentials
	_, err := a.client.do(ctx, "auth", http.MethodPost, a.client.services.Auth+"/register", params, &creds)
	return creds, err
}

// Me returns the profile behind the current bearer token.
func (a *Auth) Me(ctx context.Context) (models.User, error) {
	var user models.User
	_, err := a.client.do(ctx, "auth", http.MethodGet, a.client.services.Users+"/me", nil, &user)
	return user, err
}
