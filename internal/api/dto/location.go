package dto

import "home-compass-service/internal/domain"

type SetHomeRequest struct {
	Address string `json:"address"`
}

type CoordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type DisplayResponse struct {
	AddressInput   string `json:"address_input"`
	HomeAddress    string `json:"home_address"`
	LatLng         string `json:"lat_lng"`
	CurrentAddress string `json:"current_address"`
	Distance       string `json:"distance"`
}

type LocationResponse struct {
	Home       *CoordinatesResponse `json:"home"`
	Current    *CoordinatesResponse `json:"current"`
	Display    DisplayResponse      `json:"display"`
	Generation uint64               `json:"generation"`
	// Set when the operation finished but a follow-up step reported a problem.
	Notice string `json:"notice,omitempty"`
}

func coordinates(c *domain.Coordinates) *CoordinatesResponse {
	if c == nil {
		return nil
	}
	return &CoordinatesResponse{Lat: c.Lat, Lon: c.Lon}
}

func LocationFromSnapshot(s domain.LocationSnapshot) LocationResponse {
	return LocationResponse{
		Home:    coordinates(s.State.Home),
		Current: coordinates(s.State.Current),
		Display: DisplayResponse{
			AddressInput:   s.Display.AddressInput,
			HomeAddress:    s.Display.HomeAddress,
			LatLng:         s.Display.LatLng,
			CurrentAddress: s.Display.CurrentAddress,
			Distance:       s.Display.Distance,
		},
		Generation: s.Generation,
	}
}

type PermissionRequest struct {
	Granted *bool `json:"granted"`
}

type PermissionResponse struct {
	Granted  bool `json:"granted"`
	Resolved int  `json:"resolved"`
}
