package services

import (
	"context"
	"home-compass-service/internal/domain"
	"strings"
	"sync"
)

var (
	amphitheatre = domain.Address{
		Coordinates: domain.Coordinates{Lat: 37.422, Lon: -122.084},
		Label:       "1600 Amphitheatre Pkwy, Mountain View, CA 94043, USA",
	}
	infiniteLoop = domain.Coordinates{Lat: 37.3349, Lon: -122.0090}
)

type fakeGeocoder struct {
	mu           sync.Mutex
	forward      map[string]domain.Address
	forwardErr   error
	reverseLabel string
	reverseErr   error
	forwardCalls int
}

func (g *fakeGeocoder) Forward(ctx context.Context, text string, maxResults int) ([]domain.Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forwardCalls++
	if g.forwardErr != nil {
		return nil, g.forwardErr
	}
	a, ok := g.forward[strings.ToLower(text)]
	if !ok {
		return []domain.Address{}, nil
	}
	return []domain.Address{a}, nil
}

func (g *fakeGeocoder) Reverse(ctx context.Context, at domain.Coordinates, maxResults int) ([]domain.Address, error) {
	if g.reverseErr != nil {
		return nil, g.reverseErr
	}
	if g.reverseLabel == "" {
		return []domain.Address{}, nil
	}
	return []domain.Address{{Coordinates: at, Label: g.reverseLabel}}, nil
}

// fakeGPS returns fixes in order, repeating the last one. When holdFirst is set the
// first call signals started and waits for holdFirst to close.
type fakeGPS struct {
	mu        sync.Mutex
	fixes     []*domain.Coordinates
	err       error
	calls     int
	holdFirst chan struct{}
	started   chan struct{}
}

func (g *fakeGPS) LastKnown(ctx context.Context) (*domain.Coordinates, error) {
	g.mu.Lock()
	n := g.calls
	g.calls++
	g.mu.Unlock()

	if n == 0 && g.holdFirst != nil {
		close(g.started)
		select {
		case <-g.holdFirst:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	if len(g.fixes) == 0 {
		return nil, nil
	}
	fix := g.fixes[min(n, len(g.fixes)-1)]
	if fix == nil {
		return nil, nil
	}
	c := *fix
	return &c, nil
}

func (g *fakeGPS) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// recorder collects everything the controllers present.
type recorder struct {
	mu     sync.Mutex
	toasts []string
	snaps  []domain.LocationSnapshot
	frames []domain.CompassFrame
}

func (r *recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, msg)
}

func (r *recorder) Publish(s domain.LocationSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) Render(f domain.CompassFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recorder) Toasts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.toasts...)
}

func (r *recorder) LastToast() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return ""
	}
	return r.toasts[len(r.toasts)-1]
}

func (r *recorder) Frames() []domain.CompassFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CompassFrame(nil), r.frames...)
}

func coords(lat, lon float64) *domain.Coordinates {
	return &domain.Coordinates{Lat: lat, Lon: lon}
}
