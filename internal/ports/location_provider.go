package ports

import (
	"context"
	"home-compass-service/internal/domain"
)

// Port: the device's last known position.
type LocationProvider interface {
	// Return the last known fix. A nil coordinate with a nil error means the provider has no fix yet.
	LastKnown(ctx context.Context) (*domain.Coordinates, error)
}

// Port: the runtime location permission.
type PermissionGateway interface {
	// Report whether location access is currently granted.
	Check(ctx context.Context) bool
	// Ask for access and block until the user answers or ctx ends.
	Request(ctx context.Context) (bool, error)
}
