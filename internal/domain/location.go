package domain

import "fmt"

// Placeholder text shown before a value is known or after a reset.
const (
	HomeAddressPlaceholder    = "Home Address: not set"
	CurrentAddressPlaceholder = "Current Address: unknown"
	LatLngPlaceholder         = "Latitude / Longitude"
	DistancePlaceholder       = "Distance: --"

	DistanceHomeMissing    = "Distance: set your home first."
	DistanceCurrentMissing = "Distance: waiting for current location."
	DistanceTapHint        = `Distance: tap "Calculate Distance" to update.`
	CurrentAddressNotFound = "Current Address: not found"
)

// LocationState holds the two optional points the home screen works with.
// Home is set by a successful address lookup, Current by a successful GPS fetch;
// Reset clears both.
type LocationState struct {
	Home    *Coordinates
	Current *Coordinates
}

// Display is the set of text fields the home screen renders.
type Display struct {
	AddressInput   string
	HomeAddress    string
	LatLng         string
	CurrentAddress string
	Distance       string
}

// PlaceholderDisplay returns the display as it looks on a fresh or reset screen.
func PlaceholderDisplay() Display {
	return Display{
		HomeAddress:    HomeAddressPlaceholder,
		LatLng:         LatLngPlaceholder,
		CurrentAddress: CurrentAddressPlaceholder,
		Distance:       DistancePlaceholder,
	}
}

// LocationSnapshot is a point-in-time copy of the workflow for readers outside it.
type LocationSnapshot struct {
	State      LocationState
	Display    Display
	Generation uint64
}

// HomeAddressText formats the home label line.
func HomeAddressText(label string) string { return "Home Address:\n" + label }

// CurrentAddressText formats the reverse-geocoded label line.
func CurrentAddressText(label string) string { return "Current Address:\n" + label }

// ComputeDistanceDisplay derives the distance line from the two optional points.
func ComputeDistanceDisplay(home, current *Coordinates) string {
	switch {
	case home == nil:
		return DistanceHomeMissing
	case current == nil:
		return DistanceCurrentMissing
	default:
		km := DistanceMeters(*home, *current) / 1000.0
		return fmt.Sprintf("Distance: %.2f km", km)
	}
}
