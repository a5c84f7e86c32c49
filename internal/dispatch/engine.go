// Package dispatch decides, per dashboard session, whether and when to
// broadcast a hazard alert: at most one confirmed broadcast per session, with
// explicit queuing while the session's location is unknown.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/namanbnsl/CrisisNet/internal/detect"
	"github.com/namanbnsl/CrisisNet/internal/social"
)

// Broadcaster posts the public alert. Implemented by *social.Client.
type Broadcaster interface {
	Broadcast(ctx context.Context, req *social.BroadcastRequest) (*social.BroadcastResult, error)
}

// SentEvent describes a confirmed broadcast, delivered to the OnSent hook.
type SentEvent struct {
	SessionID string
	Lat       float64
	Lng       float64
	RadiusKm  float64
	PostID    string
}

// Engine is the per-session alert state machine. Detection batches, location
// fixes, and manual triggers arrive on handler goroutines; the mutex
// serializes them in arrival order, and the send itself runs outside the
// lock with StatusSending as the guard.
type Engine struct {
	sessionID   string
	broadcaster Broadcaster
	hazards     detect.LabelSet
	radiusKm    float64
	onSent      func(ctx context.Context, ev SentEvent)
	logger      log.Logger
	metrics     *Metrics

	mu       sync.Mutex
	status   Status
	errText  string
	lat, lng float64
	locKnown bool
	// pendingImage is held only while queued and released on consumption;
	// the latest detection frame wins when several hazards queue up.
	pendingImage string
}

// NewEngine creates an idle engine for one session. onSent and metrics may
// be nil.
func NewEngine(
	sessionID string,
	broadcaster Broadcaster,
	hazards detect.LabelSet,
	radiusKm float64,
	onSent func(ctx context.Context, ev SentEvent),
	logger log.Logger,
	metrics *Metrics,
) *Engine {
	if broadcaster == nil {
		panic(xerrors.New("dispatch: broadcaster is required"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		sessionID:   sessionID,
		broadcaster: broadcaster,
		hazards:     hazards,
		radiusKm:    radiusKm,
		onSent:      onSent,
		logger:      logger.With("session_id", sessionID),
		metrics:     metrics,
		status:      StatusIdle,
	}
}

// State returns the session's dashboard-visible alert state.
func (e *Engine) State() AlertState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return AlertState{Status: e.status, Err: e.errText}
}

// HandleDetections evaluates one detection batch. Batches without a hazard
// label are ignored. With a hazard: if the location is known the alert is
// sent; otherwise the session queues for location, stashing the batch's
// frame (latest wins). No-op while sending or after a confirmed send.
func (e *Engine) HandleDetections(ctx context.Context, batch *detect.Batch) {
	hazard := batch.HasHazard(e.hazards)
	e.observeBatch(hazard)
	if !hazard {
		return
	}

	e.mu.Lock()
	switch e.status {
	case StatusSending, StatusSent:
		e.mu.Unlock()
		return
	}

	if !e.locKnown {
		e.status = StatusQueued
		e.pendingImage = batch.ImageB64
		e.mu.Unlock()
		e.observeQueued()
		e.logger.Info(ctx, "hazard detected, queued for location")
		return
	}

	lat, lng := e.lat, e.lng
	img := batch.ImageB64
	e.status = StatusSending
	e.mu.Unlock()

	e.send(ctx, lat, lng, img)
}

// HandleLocation records the session's resolved location. If a hazard was
// queued waiting for it, the deferred send fires now with the stashed frame.
func (e *Engine) HandleLocation(ctx context.Context, lat, lng float64) {
	e.mu.Lock()
	e.lat, e.lng, e.locKnown = lat, lng, true
	if e.status != StatusQueued {
		e.mu.Unlock()
		return
	}
	img := e.pendingImage
	e.pendingImage = ""
	e.status = StatusSending
	e.mu.Unlock()

	e.logger.Info(ctx, "location resolved, sending queued alert", "lat", lat, "lng", lng)
	e.send(ctx, lat, lng, img)
}

// HandleManual is the user-triggered send. It passes through the exact same
// state guard as the automatic path, so manual and automatic triggers cannot
// race into a duplicate post. With the location unknown it queues, same as a
// detection.
func (e *Engine) HandleManual(ctx context.Context) {
	e.mu.Lock()
	switch e.status {
	case StatusSending, StatusSent:
		e.mu.Unlock()
		return
	}

	if !e.locKnown {
		e.status = StatusQueued
		e.mu.Unlock()
		e.observeQueued()
		e.logger.Info(ctx, "manual trigger queued for location")
		return
	}

	lat, lng := e.lat, e.lng
	img := e.pendingImage
	e.pendingImage = ""
	e.status = StatusSending
	e.mu.Unlock()

	e.send(ctx, lat, lng, img)
}

// send runs the broadcast call. The caller must have transitioned the
// session to StatusSending. Success is absorbing; failure records the error
// and resets to idle so a later detection or manual trigger can retry.
func (e *Engine) send(ctx context.Context, lat, lng float64, img string) {
	req := &social.BroadcastRequest{
		Lat:      &lat,
		Lng:      &lng,
		RadiusKm: e.radiusKm,
		Message:  fmt.Sprintf("Fire detected near %.5f, %.5f. Avoid the area and contact emergency services.", lat, lng),
		ImageB64: img,
	}

	res, err := e.broadcaster.Broadcast(ctx, req)

	e.mu.Lock()
	if err != nil {
		e.errText = err.Error()
		e.status = StatusIdle
		e.mu.Unlock()
		e.observeSend("error")
		e.logger.Error(ctx, err, "alert broadcast failed")
		return
	}
	e.status = StatusSent
	e.errText = ""
	e.mu.Unlock()

	e.observeSend("sent")
	e.logger.Info(ctx, "alert broadcast", "post_id", res.ID, "lat", lat, "lng", lng)

	if e.onSent != nil {
		e.onSent(ctx, SentEvent{
			SessionID: e.sessionID,
			Lat:       lat,
			Lng:       lng,
			RadiusKm:  e.radiusKm,
			PostID:    res.ID,
		})
	}
}

func (e *Engine) observeBatch(hazard bool) {
	if e.metrics != nil {
		e.metrics.BatchesTotal.WithLabelValues(fmt.Sprintf("%t", hazard)).Inc()
	}
}

func (e *Engine) observeQueued() {
	if e.metrics != nil {
		e.metrics.QueuedTotal.Inc()
	}
}

func (e *Engine) observeSend(result string) {
	if e.metrics != nil {
		e.metrics.SendsTotal.WithLabelValues(result).Inc()
	}
}
