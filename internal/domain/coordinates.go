package domain

import "fmt"

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// LatLngText renders the coordinate the way the home screen shows it.
func (c Coordinates) LatLngText() string {
	return fmt.Sprintf("Latitude: %.6f\nLongitude: %.6f", c.Lat, c.Lon)
}

// A single geocoder result: a coordinate plus its formatted address line.
type Address struct {
	Coordinates
	Label string
}
