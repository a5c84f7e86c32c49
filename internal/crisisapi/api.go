// Package crisisapi exposes the dashboard-facing HTTP API: detection
// ingestion, location fixes, manual alert triggers, sensor readings, and the
// per-session alert state the dashboard polls.
package crisisapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/namanbnsl/CrisisNet/internal/authmw"
	"github.com/namanbnsl/CrisisNet/internal/campaign"
	"github.com/namanbnsl/CrisisNet/internal/dispatch"
	"github.com/namanbnsl/CrisisNet/internal/sensor"
)

// API holds dependencies for HTTP handlers. Location fixes flow to the
// per-session engine only; the shared location cache belongs to the alert
// send path and is not written from here.
type API struct {
	logger   log.Logger
	sessions *dispatch.Sessions
	sensors  *sensor.Snapshot
	store    campaign.Store
	token    string
}

// New creates a new API handler. token guards the mutating routes; empty
// leaves them open.
func New(
	logger log.Logger,
	sessions *dispatch.Sessions,
	sensors *sensor.Snapshot,
	store campaign.Store,
	token string,
) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if sessions == nil {
		panic(xerrors.New("session registry is required"))
	}
	if sensors == nil {
		panic(xerrors.New("sensor snapshot is required"))
	}
	if store == nil {
		panic(xerrors.New("campaign store is required"))
	}
	return &API{
		logger:   logger,
		sessions: sessions,
		sensors:  sensors,
		store:    store,
		token:    token,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sessions/{id}/state", a.handleSessionState)
		r.Get("/readings", a.handleListReadings)
		r.Get("/alerts/latest", a.handleLatestAlert)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireToken(a.token))
			r.Post("/sessions/{id}/detections", a.handleDetections)
			r.Post("/sessions/{id}/location", a.handleLocation)
			r.Post("/sessions/{id}/alert", a.handleManualAlert)
			r.Post("/readings", a.handleRecordReading)
		})
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
