package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"home-compass-service/internal/domain"
	"os"
	"strings"
)

// Destination for seeded geocode entries.
type GeocodeSeeder interface {
	PutMany(ctx context.Context, results map[string]domain.Address) error
}

type AddressSeed struct {
	Query string  `json:"query"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
}

// Warm the forward geocode cache with known addresses from a JSON file.
func SeedFromJSON(ctx context.Context, cache GeocodeSeeder, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed geocode cache: read %q: %w", jsonPath, err)
	}

	var data []AddressSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed geocode cache: parse json: %w", err)
	}

	rows := make(map[string]domain.Address, len(data))
	for i, item := range data {
		query := strings.Join(strings.Fields(item.Query), " ")
		if query == "" {
			return 0, fmt.Errorf("seed geocode cache: item at index %d: query cannot be empty", i+1)
		}
		if item.Lat < -90 || item.Lat > 90 || item.Lon < -180 || item.Lon > 180 {
			return 0, fmt.Errorf("seed geocode cache: item %q: coordinate out of range", query)
		}

		label := strings.TrimSpace(item.Label)
		if label == "" {
			label = query
		}
		rows[query] = domain.Address{
			Coordinates: domain.Coordinates{Lon: item.Lon, Lat: item.Lat},
			Label:       label,
		}
	}

	if err := cache.PutMany(ctx, rows); err != nil {
		return 0, fmt.Errorf("seed geocode cache: %w", err)
	}

	return len(rows), nil
}
