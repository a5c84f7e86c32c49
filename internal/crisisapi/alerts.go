package crisisapi

import "net/http"

func (a *API) handleLatestAlert(w http.ResponseWriter, r *http.Request) {
	rec, ok, err := a.store.LatestAlert(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to load latest alert")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	a.writeJSON(w, http.StatusOK, rec)
}
