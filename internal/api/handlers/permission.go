package handlers

import (
	"home-compass-service/internal/api/dto"
	"net/http"
)

// PermissionResolver answers pending location permission prompts.
type PermissionResolver interface {
	Resolve(granted bool) int
}

type PermissionHandler struct {
	// Nil when permission is fixed by configuration.
	Resolver PermissionResolver
}

func (h *PermissionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if h.Resolver == nil {
		writeError(w, r, http.StatusConflict, "location permission is fixed by configuration")
		return
	}

	var req dto.PermissionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Granted == nil {
		writeError(w, r, http.StatusBadRequest, "granted is required")
		return
	}

	n := h.Resolver.Resolve(*req.Granted)
	writeJSON(w, r, http.StatusOK, dto.PermissionResponse{Granted: *req.Granted, Resolved: n})
}
