package handlers

import (
	"context"
	"net/http"
	"time"
)

// Check probes one backing service.
type Check func(ctx context.Context) error

// HealthHandler reports liveness plus the state of optional backing services.
// A failing check degrades the report but never fails liveness.
type HealthHandler struct {
	Checks map[string]Check
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	res := map[string]any{"status": "ok"}
	if len(h.Checks) == 0 {
		writeJSON(w, r, http.StatusOK, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			res["status"] = "degraded"
			continue
		}
		checks[name] = "ok"
	}
	res["checks"] = checks

	writeJSON(w, r, http.StatusOK, res)
}
