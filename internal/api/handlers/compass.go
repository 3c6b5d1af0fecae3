package handlers

import (
	"context"
	"home-compass-service/internal/api/dto"
	"home-compass-service/internal/services"
	"net/http"
)

type CompassController interface {
	Activate(ctx context.Context) error
	Deactivate()
	Status() services.CompassStatus
}

// CompassHandler navigates to and from the compass screen. The sensor subscription
// outlives the request, so it is bound to Base rather than the request context.
type CompassHandler struct {
	Compass CompassController
	Base    context.Context
}

func (h *CompassHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, compassResponse(h.Compass.Status()))
}

func (h *CompassHandler) Activate(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	base := h.Base
	if base == nil {
		base = context.WithoutCancel(r.Context())
	}
	if err := h.Compass.Activate(base); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, compassResponse(h.Compass.Status()))
}

func (h *CompassHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	h.Compass.Deactivate()
	writeJSON(w, r, http.StatusOK, compassResponse(h.Compass.Status()))
}

func compassResponse(st services.CompassStatus) dto.CompassResponse {
	res := dto.CompassResponse{
		State:    string(st.State),
		Sensor:   string(st.Sensor),
		Degraded: st.Degraded,
	}
	if st.Last != nil {
		f := dto.FrameFromDomain(*st.Last)
		res.Last = &f
	}
	return res
}
