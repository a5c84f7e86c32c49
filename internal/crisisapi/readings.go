package crisisapi

import (
	"encoding/json"
	"net/http"

	"github.com/namanbnsl/CrisisNet/internal/sensor"
)

func (a *API) handleRecordReading(w http.ResponseWriter, r *http.Request) {
	var reading sensor.Reading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if reading.Metric == "" {
		http.Error(w, `{"error":"metric is required"}`, http.StatusBadRequest)
		return
	}

	a.sensors.Record(reading)

	a.writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func (a *API) handleListReadings(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{
		"readings": a.sensors.Latest(),
	})
}
