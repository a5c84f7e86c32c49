package campaign

import (
	"context"
	"time"
)

// AlertRecord is the durable trace of one broadcast alert.
type AlertRecord struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	RadiusKm  float64   `json:"radius_km"`
	PostID    string    `json:"post_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists campaign state: which reply ids have already been answered
// and the alerts that were broadcast. The seen set only grows; there is no
// eviction because a campaign is bounded by its schedule deadline.
type Store interface {
	// Seen reports whether the reply id has already been responded to.
	Seen(ctx context.Context, id string) (bool, error)
	// Mark records that the reply id has been responded to.
	Mark(ctx context.Context, id string) error
	// PutAlert stores a broadcast alert record.
	PutAlert(ctx context.Context, rec *AlertRecord) error
	// LatestAlert returns the most recently created alert record.
	LatestAlert(ctx context.Context) (*AlertRecord, bool, error)
}
