package api

import (
	"context"
	"home-compass-service/internal/api/handlers"
	"home-compass-service/internal/api/ws"
	"net/http"
)

// Deps are the collaborators the HTTP surface needs. Nil optional fields switch the
// matching routes off.
type Deps struct {
	// Base outlives individual requests; compass subscriptions are bound to it.
	Base       context.Context
	Location   handlers.LocationWorkflow
	Compass    handlers.CompassController
	Permission handlers.PermissionResolver
	Hub        *ws.Hub
	Sensors    *ws.SensorFeed
	Checks     map[string]handlers.Check
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{Checks: d.Checks}
	loc := &handlers.LocationHandler{Workflow: d.Location}
	perm := &handlers.PermissionHandler{Resolver: d.Permission}
	compass := &handlers.CompassHandler{Compass: d.Compass, Base: d.Base}

	mux.HandleFunc("/health", health.Health)

	mux.HandleFunc("/location", loc.Get)
	mux.HandleFunc("/location/home", loc.SetHome)
	mux.HandleFunc("/location/distance", loc.Distance)
	mux.HandleFunc("/location/gps/refresh", loc.RefreshGPS)
	mux.HandleFunc("/location/reset", loc.Reset)
	mux.HandleFunc("/permission", perm.Answer)

	mux.HandleFunc("/compass", compass.Get)
	mux.HandleFunc("/compass/activate", compass.Activate)
	mux.HandleFunc("/compass/deactivate", compass.Deactivate)

	if d.Hub != nil {
		mux.Handle("/ws", d.Hub)
	}
	if d.Sensors != nil {
		mux.Handle("/ws/sensor", d.Sensors)
	}

	return requestIDMiddleware(loggingMiddleware(mux))
}
