package dispatch

import "sync"

// Sessions is the registry of per-session engines, created lazily on first
// use. Sessions are in-memory only and vanish with the process.
type Sessions struct {
	mu      sync.Mutex
	engines map[string]*Engine
	factory func(sessionID string) *Engine
}

// NewSessions creates a registry that builds engines with factory.
func NewSessions(factory func(sessionID string) *Engine) *Sessions {
	return &Sessions{
		engines: make(map[string]*Engine),
		factory: factory,
	}
}

// Get returns the engine for sessionID, creating it in the idle state on
// first use.
func (s *Sessions) Get(sessionID string) *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engines[sessionID]
	if !ok {
		e = s.factory(sessionID)
		s.engines[sessionID] = e
	}
	return e
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.engines)
}
