package geocode

import (
	"context"
	"home-compass-service/internal/domain"
	"strings"
)

// StaticGeocoder answers from a fixed address book. Used for demo runs and tests.
type StaticGeocoder struct {
	byQuery map[string]domain.Address
	book    []domain.Address
	// Reverse lookups only match entries within this many meters.
	reverseRadius float64
}

func NewStaticGeocoder(entries map[string]domain.Address, reverseRadiusMeters float64) *StaticGeocoder {
	g := &StaticGeocoder{
		byQuery:       make(map[string]domain.Address, len(entries)),
		book:          make([]domain.Address, 0, len(entries)),
		reverseRadius: reverseRadiusMeters,
	}
	for q, a := range entries {
		g.byQuery[strings.ToLower(normalize(q))] = a
		g.book = append(g.book, a)
	}
	return g
}

// DemoAddressBook is the address book used when no geocoding service is configured.
func DemoAddressBook() map[string]domain.Address {
	return map[string]domain.Address{
		"1600 Amphitheatre Pkwy": {
			Coordinates: domain.Coordinates{Lat: 37.422, Lon: -122.084},
			Label:       "1600 Amphitheatre Pkwy, Mountain View, CA 94043, USA",
		},
		"1 Infinite Loop": {
			Coordinates: domain.Coordinates{Lat: 37.3349, Lon: -122.0090},
			Label:       "1 Infinite Loop, Cupertino, CA 95014, USA",
		},
		"CN Tower": {
			Coordinates: domain.Coordinates{Lat: 43.6426, Lon: -79.3871},
			Label:       "290 Bremner Blvd, Toronto, ON M5V 3L9, Canada",
		},
	}
}

func (g *StaticGeocoder) Forward(ctx context.Context, text string, maxResults int) ([]domain.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, ok := g.byQuery[strings.ToLower(normalize(text))]
	if !ok || maxResults < 1 {
		return []domain.Address{}, nil
	}
	return []domain.Address{a}, nil
}

func (g *StaticGeocoder) Reverse(ctx context.Context, at domain.Coordinates, maxResults int) ([]domain.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		best     domain.Address
		bestDist = -1.0
	)
	for _, a := range g.book {
		d := domain.DistanceMeters(at, a.Coordinates)
		if d > g.reverseRadius {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = a, d
		}
	}

	if bestDist < 0 || maxResults < 1 {
		return []domain.Address{}, nil
	}
	return []domain.Address{{Coordinates: at, Label: best.Label}}, nil
}
