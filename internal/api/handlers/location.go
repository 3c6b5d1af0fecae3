package handlers

import (
	"context"
	"home-compass-service/internal/api/dto"
	"home-compass-service/internal/domain"
	"net/http"
)

// LocationWorkflow is the home screen as the handlers see it.
type LocationWorkflow interface {
	SetHome(ctx context.Context, addressText string) error
	RequestDistance(ctx context.Context) error
	RefreshGPS(ctx context.Context) error
	Reset(ctx context.Context) error
	Snapshot() domain.LocationSnapshot
}

// LocationHandler exposes the home screen buttons. Every successful call answers
// with the resulting snapshot.
type LocationHandler struct {
	Workflow LocationWorkflow
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, dto.LocationFromSnapshot(h.Workflow.Snapshot()))
}

func (h *LocationHandler) SetHome(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req dto.SetHomeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.respond(w, r, h.Workflow.SetHome(r.Context(), req.Address))
}

func (h *LocationHandler) Distance(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	h.respond(w, r, h.Workflow.RequestDistance(r.Context()))
}

func (h *LocationHandler) RefreshGPS(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	h.respond(w, r, h.Workflow.RefreshGPS(r.Context()))
}

// Reset always succeeds; a failure of the follow-up GPS fetch comes back as a notice.
func (h *LocationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	err := h.Workflow.Reset(r.Context())
	res := dto.LocationFromSnapshot(h.Workflow.Snapshot())
	if err != nil {
		res.Notice = domain.UserMessage(err)
		if res.Notice == "" {
			res.Notice = err.Error()
		}
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *LocationHandler) respond(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.LocationFromSnapshot(h.Workflow.Snapshot()))
}
