// Package geo holds the last known incident coordinates, written when an
// alert fires and read by the reply responder to enrich generated text.
package geo

import (
	"sync"
	"time"
)

// Location is a point with the time it was recorded.
type Location struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationCache is a last-writer-wins cell for the most recent incident
// location. Safe for concurrent use; constructed in main and injected, never
// a package global.
type LocationCache struct {
	mu  sync.RWMutex
	loc Location
	set bool

	now func() time.Time
}

// NewLocationCache returns an empty cache.
func NewLocationCache() *LocationCache {
	return &LocationCache{now: time.Now}
}

// Set stores the coordinates unconditionally, overwriting any prior value.
// Coordinates are not range-checked here; callers validate at the edge.
func (c *LocationCache) Set(lat, lng float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loc = Location{Lat: lat, Lng: lng, UpdatedAt: c.now()}
	c.set = true
}

// Get returns the stored location and whether one has ever been set.
func (c *LocationCache) Get() (Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loc, c.set
}
