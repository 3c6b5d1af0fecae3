package ports

import (
	"context"
	"home-compass-service/internal/domain"
)

// Contract for converting between address text and coordinates.
type Geocoder interface {
	// Return up to maxResults matches for free-form address text. An empty slice means no match.
	Forward(ctx context.Context, text string, maxResults int) ([]domain.Address, error)
	// Return up to maxResults addresses near a coordinate. An empty slice means no match.
	Reverse(ctx context.Context, at domain.Coordinates, maxResults int) ([]domain.Address, error)
}

// Persistent lookup of previously forward-geocoded address text.
type ForwardGeocodeCache interface {
	Get(ctx context.Context, text string) (domain.Address, bool, error)
	Put(ctx context.Context, text string, addr domain.Address) error
}

// Persistent lookup of previously reverse-geocoded coordinates.
type ReverseGeocodeCache interface {
	Get(ctx context.Context, at domain.Coordinates) (string, bool, error)
	Put(ctx context.Context, at domain.Coordinates, label string) error
}
