package crisisapi

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"

	"github.com/namanbnsl/CrisisNet/internal/detect"
)

// locationFix is the body of a location update. Pointers so missing fields
// can be told apart from zero coordinates.
type locationFix struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (a *API) handleDetections(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var batch detect.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("crisisnet.session.id", id),
		attribute.Int("crisisnet.batch.size", len(batch.Detections)),
	)

	eng := a.sessions.Get(id)
	eng.HandleDetections(r.Context(), &batch)

	a.writeJSON(w, http.StatusAccepted, eng.State())
}

func (a *API) handleLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fix locationFix
	if err := json.NewDecoder(r.Body).Decode(&fix); err != nil || fix.Lat == nil || fix.Lng == nil {
		http.Error(w, `{"error":"lat and lng are required"}`, http.StatusBadRequest)
		return
	}
	lat, lng := *fix.Lat, *fix.Lng
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		http.Error(w, `{"error":"coordinates out of range"}`, http.StatusBadRequest)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("crisisnet.session.id", id))

	// The shared location cache is written only on a confirmed send (the
	// engine's onSent hook); a bare fix must not seed it.
	eng := a.sessions.Get(id)
	eng.HandleLocation(r.Context(), lat, lng)

	a.logger.Info(r.Context(), "location fix recorded",
		"session_id", id, "lat", lat, "lng", lng)

	a.writeJSON(w, http.StatusOK, eng.State())
}

func (a *API) handleManualAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("crisisnet.session.id", id))

	eng := a.sessions.Get(id)
	eng.HandleManual(r.Context())

	a.writeJSON(w, http.StatusAccepted, eng.State())
}

func (a *API) handleSessionState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	eng := a.sessions.Get(id)
	state := eng.State()

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("crisisnet.session.id", id),
		attribute.String("crisisnet.alert.status", string(state.Status)),
	)

	a.writeJSON(w, http.StatusOK, state)
}
