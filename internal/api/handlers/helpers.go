package handlers

import (
	"encoding/json"
	"errors"
	"home-compass-service/internal/domain"
	"home-compass-service/internal/platform/obs"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithFields(logrus.Fields{
			"req_id": obs.RequestID(r.Context()),
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Warn("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// allow rejects requests whose method is not m.
func allow(w http.ResponseWriter, r *http.Request, m string) bool {
	if r.Method == m {
		return true
	}
	w.Header().Set("Allow", m)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// decodeBody reads exactly one JSON object into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// statusFor maps a workflow error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAddressNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrHomeNotSet), errors.Is(err, domain.ErrStaleResult):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrLocationFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure reports err with its user-facing message. Anything without one is
// logged and hidden behind a generic message.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := domain.UserMessage(err)

	switch {
	case errors.Is(err, domain.ErrStaleResult):
		msg = "result discarded after reset"
	case msg == "":
		logrus.WithField("req_id", obs.RequestID(r.Context())).WithError(err).Error("request failed")
		msg = "internal server error"
	}
	writeError(w, r, status, msg)
}
