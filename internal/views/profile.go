package views

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"social-client/internal/models"
)

// UserService resolves public profiles.
type UserService interface {
	Profile(ctx context.Context, userID string) (models.User, error)
}

// SocialService is the follow-graph surface.
type SocialService interface {
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error
	IsFollowing(ctx context.Context, userID string) (bool, error)
	Following(ctx context.Context, userID string) ([]models.User, error)
	Followers(ctx context.Context, userID string) ([]models.User, error)
}

// ProfileView presents one user's profile with follow state. Follow and
// Unfollow patch local state only after the mutation succeeds.
type ProfileView struct {
	users  UserService
	social SocialService
	logger *zap.Logger

	mu          sync.Mutex
	user        models.User
	followers   int
	following   int
	isFollowing bool
}

// NewProfileView builds an empty profile view.
func NewProfileView(users UserService, social SocialService, logger *zap.Logger) *ProfileView {
	return &ProfileView{users: users, social: social, logger: logger}
}

// Load fetches the profile, follow counts and follow state for userID.
func (v *ProfileView) Load(ctx context.Context, userID string) error {
	user, err := v.users.Profile(ctx, userID)
	if err != nil {
		return err
	}

	followers, err := v.social.Followers(ctx, userID)
	if err != nil {
		return err
	}
	following, err := v.social.Following(ctx, userID)
	if err != nil {
		return err
	}
	isFollowing, err := v.social.IsFollowing(ctx, userID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.user = user
	v.followers = len(followers)
	v.following = len(following)
	v.isFollowing = isFollowing
	v.mu.Unlock()
	return nil
}

// Follow starts following the loaded user, patching counts on success.
func (v *ProfileView) Follow(ctx context.Context) error {
	v.mu.Lock()
	userID := v.user.ID
	v.mu.Unlock()

	if err := v.social.Follow(ctx, userID); err != nil {
		return err
	}

	v.mu.Lock()
	if !v.isFollowing {
		v.isFollowing = true
		v.followers++
	}
	v.mu.Unlock()
	return nil
}

// Unfollow stops following the loaded user, patching counts on success.
func (v *ProfileView) Unfollow(ctx context.Context) error {
	v.mu.Lock()
	userID := v.user.ID
	v.mu.Unlock()

	if err := v.social.Unfollow(ctx, userID); err != nil {
		return err
	}

	v.mu.Lock()
	if v.isFollowing {
		v.isFollowing = false
		v.followers--
	}
	v.mu.Unlock()
	return nil
}

// ProfileSnapshot is the view-facing profile state.
type ProfileSnapshot struct {
	User        models.User
	Followers   int
	Following   int
	IsFollowing bool
}

// Snapshot returns a copy of the profile state.
func (v *ProfileView) Snapshot() ProfileSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ProfileSnapshot{
		User:        v.user,
		Followers:   v.followers,
		Following:   v.following,
		IsFollowing: v.isFollowing,
	}
}
