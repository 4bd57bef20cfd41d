package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"social-client/internal/models"
)

// Store owns the current-user identity and authentication flag. It is an
// explicit, injectable container: every consumer receives it by reference,
// nothing reads ambient package state. The session survives restarts in a
// JSON file with owner-only permissions.
type Store struct {
	path   string
	logger *zap.Logger

	mu        sync.RWMutex
	session   models.Session
	listeners []func(models.Session)
}

// NewStore builds a store persisting to path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the persisted session. A missing file is not an error, it just
// leaves the store unauthenticated.
func (s *Store) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	return nil
}

// Current returns a copy of the session.
func (s *Store) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Token returns the current bearer token, or "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

// UserID returns the current user's id, or "" when unauthenticated.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.session.Authenticated {
		return ""
	}
	return s.session.User.ID
}

// SetSession records a fresh login and persists it.
func (s *Store) SetSession(creds models.Credentials) error {
	s.mu.Lock()
	s.session = models.Session{
		User:          creds.User,
		AccessToken:   creds.AccessToken,
		RefreshToken:  creds.RefreshToken,
		Authenticated: true,
	}
	snapshot := s.session
	s.mu.Unlock()

	s.notify(snapshot)
	return s.persist(snapshot)
}

// Clear logs the session out and removes the persisted file.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.session = models.Session{}
	snapshot := s.session
	s.mu.Unlock()

	s.notify(snapshot)
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Subscribe registers a listener invoked on every session change.
func (s *Store) Subscribe(fn func(models.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// TokenExpired reports whether the stored access token carries an exp claim
// in the past. The signature is not checked, the client holds no key; this
// is only a cheap pre-flight before asking the auth service.
func (s *Store) TokenExpired() bool {
	token := s.Token()
	if token == "" {
		return true
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}

// UserFetcher is the auth surface Validate needs.
type UserFetcher interface {
	Me(ctx context.Context) (models.User, error)
}

// Validate refreshes the profile behind the stored token at startup. On any
// failure the session is cleared silently: the user simply starts logged
// out, no error surfaces.
func (s *Store) Validate(ctx context.Context, auth UserFetcher) {
	if s.Token() == "" {
		return
	}

	user, err := auth.Me(ctx)
	if err != nil {
		s.logger.Info("stored session rejected, logging out", zap.Error(err))
		if err := s.Clear(); err != nil {
			s.logger.Warn("session cleanup failed", zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	s.session.User = user
	s.session.Authenticated = true
	snapshot := s.session
	s.mu.Unlock()

	s.notify(snapshot)
	if err := s.persist(snapshot); err != nil {
		s.logger.Warn("session persist failed", zap.Error(err))
	}
}

func (s *Store) notify(snapshot models.Session) {
	s.mu.RLock()
	listeners := make([]func(models.Session), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (s *Store) persist(snapshot models.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
