// Package session holds the authenticated user's credentials.
//
// A Session replaces browser-global token storage: it is created once,
// rehydrated from a Store, updated on login and refresh, and cleared on
// logout or when a refresh fails.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ppiankov/nyaya/internal/model"
)

// ErrDisposed is returned by mutations after Dispose
var ErrDisposed = errors.New("session disposed")

// Session is the token pair plus cached profile, safe for concurrent use
type Session struct {
	mu       sync.RWMutex
	store    Store
	state    State
	disposed bool
}

// New creates an empty session backed by store
func New(store Store) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store}
}

// Load rehydrates the session from the store
func (s *Session) Load() error {
	state, err := s.store.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state != nil {
		s.state = *state
	}
	return nil
}

// Authenticate stores a fresh token pair and profile
func (s *Session) Authenticate(tokens model.Tokens, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}

	s.state = State{Tokens: tokens, User: user}
	return s.persist()
}

// Refresh replaces the tokens after a refresh, keeping the old refresh token
// when the server does not rotate it
func (s *Session) Refresh(tokens model.Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}

	if tokens.RefreshToken == "" {
		tokens.RefreshToken = s.state.Tokens.RefreshToken
	}
	s.state.Tokens = tokens
	return s.persist()
}

// SetUser caches the user profile
func (s *Session) SetUser(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}

	s.state.User = user
	return s.persist()
}

// Clear forgets all credentials, in memory and in the store
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
	return s.store.Clear()
}

// Dispose drops in-memory credentials and rejects further mutation.
// The store is left untouched so the next run can rehydrate.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
	s.disposed = true
}

// AccessToken returns the current access token, empty when logged out
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Tokens.AccessToken
}

// RefreshToken returns the current refresh token
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Tokens.RefreshToken
}

// User returns the cached profile
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

// Authenticated reports whether an access token is present
func (s *Session) Authenticated() bool {
	return s.AccessToken() != ""
}

// AccessExpiry reads the exp claim of the access token.
// The signature is not checked; the backend remains the authority.
func (s *Session) AccessExpiry() (time.Time, bool) {
	return TokenExpiry(s.AccessToken())
}

// ExpiresWithin reports whether the access token is known to expire within d
func (s *Session) ExpiresWithin(d time.Duration) bool {
	exp, ok := s.AccessExpiry()
	if !ok {
		return false
	}
	return time.Until(exp) < d
}

// TokenExpiry extracts the expiry of a JWT without verifying it
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (s *Session) persist() error {
	state := s.state
	if err := s.store.Save(&state); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
