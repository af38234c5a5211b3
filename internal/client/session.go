package client

import (
	"context"
	"sync"

	"changeflow/api/internal/store"
)

// Session tracks the authenticated user on the client side. Logout and
// role switches reset the domain replica through the optional hook.
type Session struct {
	client  *Client
	onReset func()

	mu   sync.RWMutex
	user *store.User
}

func NewSession(c *Client) *Session {
	return &Session{client: c}
}

// OnReset registers a callback fired whenever the session identity
// changes, so the domain store can drop stale collections.
func (s *Session) OnReset(fn func()) {
	s.onReset = fn
}

func (s *Session) CurrentUser() (store.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return store.User{}, false
	}
	return *s.user, true
}

func (s *Session) Authenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

func (s *Session) Login(ctx context.Context, email string) (store.User, error) {
	res, err := s.client.Login(ctx, email)
	if err != nil {
		return store.User{}, err
	}
	s.client.SetToken(res.Token)
	s.setUser(res.User)
	return res.User, nil
}

// Logout tells the server to drop the token, then clears local state
// regardless of whether the call succeeded.
func (s *Session) Logout(ctx context.Context) {
	_ = s.client.Logout(ctx)
	s.client.SetToken("")
	s.clearUser()
	s.reset()
}

// SwitchRole re-issues the session as another demo user and resets the
// domain replica, since collection visibility may differ per persona.
func (s *Session) SwitchRole(ctx context.Context, role string) (store.User, error) {
	res, err := s.client.SwitchRole(ctx, role)
	if err != nil {
		return store.User{}, err
	}
	s.client.SetToken(res.Token)
	s.setUser(res.User)
	s.reset()
	return res.User, nil
}

// InitializeAuth restores a session from a previously stored token. A
// dead token leaves the session unauthenticated without surfacing an
// error.
func (s *Session) InitializeAuth(ctx context.Context, token string) {
	if token == "" {
		return
	}
	s.client.SetToken(token)
	user, err := s.client.Me(ctx)
	if err != nil {
		s.client.SetToken("")
		s.clearUser()
		return
	}
	s.setUser(user)
}

func (s *Session) setUser(u store.User) {
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
}

func (s *Session) clearUser() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

func (s *Session) reset() {
	if s.onReset != nil {
		s.onReset()
	}
}
