// Package memstore provides an in-memory implementation of campaign.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/namanbnsl/CrisisNet/internal/campaign"
)

// Store holds campaign state in memory. State vanishes on restart, which is
// acceptable for a bounded campaign; the seen set grows for the life of the
// process with no eviction.
type Store struct {
	mu     sync.RWMutex
	seen   map[string]struct{}       // reply ID -> answered
	alerts []*campaign.AlertRecord   // in creation order
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		seen: make(map[string]struct{}),
	}
}

// Seen reports whether the reply id has been answered.
func (s *Store) Seen(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[id]
	return ok, nil
}

// Mark records the reply id as answered.
func (s *Store) Mark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[id] = struct{}{}
	return nil
}

// PutAlert stores a copy of the alert record.
func (s *Store) PutAlert(_ context.Context, rec *campaign.AlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.alerts = append(s.alerts, &cp)
	return nil
}

// LatestAlert returns a copy of the most recently stored alert record.
func (s *Store) LatestAlert(_ context.Context) (*campaign.AlertRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.alerts) == 0 {
		return nil, false, nil
	}
	cp := *s.alerts[len(s.alerts)-1]
	return &cp, true, nil
}
