package ports

import (
	"context"
	"home-compass-service/internal/domain"
)

// Port: the device's sensor manager.
type SensorSource interface {
	// Return the default sensor of the given kind, if the device has one.
	Sensor(kind domain.SensorKind) (OrientationSensor, bool)
}

// A single orientation sensor whose stream lives between Subscribe and Unsubscribe.
type OrientationSensor interface {
	Kind() domain.SensorKind
	// Start delivering events. The channel is closed after Unsubscribe or when ctx ends.
	Subscribe(ctx context.Context) (<-chan domain.SensorEvent, error)
	Unsubscribe() error
}
