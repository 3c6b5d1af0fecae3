package location

import (
	"context"
	"home-compass-service/internal/domain"
	"math"
	"sync"
)

// DemoGPS simulates a device walking slowly in a circle around a centre point.
type DemoGPS struct {
	mu     sync.Mutex
	t      float64
	center domain.Coordinates
}

func NewDemoGPS(center domain.Coordinates) *DemoGPS { return &DemoGPS{center: center} }

func (d *DemoGPS) LastKnown(ctx context.Context) (*domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.t += 0.1

	radius := 0.001 // ~100m
	return &domain.Coordinates{
		Lat: d.center.Lat + radius*math.Sin(d.t),
		Lon: d.center.Lon + radius*math.Cos(d.t),
	}, nil
}

// StaticProvider always reports the same fix, or no fix when Fix is nil.
type StaticProvider struct {
	Fix *domain.Coordinates
	Err error
}

func (s StaticProvider) LastKnown(ctx context.Context) (*domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Fix == nil {
		return nil, nil
	}
	fix := *s.Fix
	return &fix, nil
}
