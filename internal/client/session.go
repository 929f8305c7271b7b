package client

import "sync"

// Session holds the current bearer token. An empty token and no token are the
// same state. Transport completions run on their own goroutines, so the slot
// is mutex-guarded.
type Session struct {
	mu    sync.RWMutex
	token string
}

// SetToken stores the bearer token, replacing any previous one.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear drops the stored token.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// Token returns the current bearer token, empty if not authenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a non-empty token is held.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}
