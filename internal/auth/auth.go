// Package auth provides the credential boundary for the realtime client.
//
// The client never mints or refreshes tokens itself; it asks an external
// session provider for the current short-lived bearer token immediately
// before connecting, and fails fast when none is available.
package auth

import (
	"context"
	"errors"
	"sync"
)

// ErrNoToken is returned when no credential is available at connect time.
// Callers surface it to the user and do not start a retry loop.
var ErrNoToken = errors.New("no access token available")

// TokenSource supplies the current short-lived bearer token.
type TokenSource interface {
	// Token returns a fresh bearer token, or ErrNoToken when the session
	// provider has none (logged out, expired without refresh).
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token. Useful for service accounts and
// tests.
type StaticTokenSource struct {
	mu    sync.RWMutex
	token string
}

// NewStaticTokenSource creates a source with an initial token. An empty token
// means "logged out".
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

// Token implements TokenSource.
func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// Set replaces the stored token. Setting "" simulates logout.
func (s *StaticTokenSource) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}
