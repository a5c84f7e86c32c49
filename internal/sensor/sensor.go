// Package sensor keeps the latest reading per environmental metric, fed by
// the dashboard's sensor cards and read when composing reply text.
package sensor

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Reading is one sensor sample.
type Reading struct {
	Metric string    `json:"metric"`
	Value  float64   `json:"value"`
	Unit   string    `json:"unit,omitempty"`
	At     time.Time `json:"at"`
}

// Snapshot holds the most recent reading per metric, last-writer-wins.
type Snapshot struct {
	mu     sync.RWMutex
	latest map[string]Reading

	now func() time.Time
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		latest: make(map[string]Reading),
		now:    time.Now,
	}
}

// Record stores r as the latest reading for its metric. A zero At is stamped
// with the current time.
func (s *Snapshot) Record(r Reading) {
	if r.Metric == "" {
		return
	}
	if r.At.IsZero() {
		r.At = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[r.Metric] = r
}

// Latest returns all current readings sorted by metric name.
func (s *Snapshot) Latest() []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Reading, 0, len(s.latest))
	for _, r := range s.latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metric < out[j].Metric })
	return out
}

// Summary renders the snapshot as a short human-readable line for prompt
// text, e.g. "smoke: 412 ppm, temperature: 61.5 C".
func (s *Snapshot) Summary() string {
	readings := s.Latest()
	if len(readings) == 0 {
		return "no sensor readings available"
	}
	parts := make([]string, 0, len(readings))
	for _, r := range readings {
		p := fmt.Sprintf("%s: %g", r.Metric, r.Value)
		if r.Unit != "" {
			p += " " + r.Unit
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}
