package httpapi

import "net/http"

// HandleHealth reports liveness and which engine the selector bound
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	engine, err := h.store.EngineName(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("engine selection failed")
		writeError(w, http.StatusServiceUnavailable, "no storage engine available", "NO_ENGINE")
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Engine: engine,
	})
}
