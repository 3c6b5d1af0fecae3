package dto

import (
	"home-compass-service/internal/domain"
	"time"
)

type SweepResponse struct {
	FromDegrees float64 `json:"from_degrees"`
	ToDegrees   float64 `json:"to_degrees"`
	DurationMs  int64   `json:"duration_ms"`
	FillAfter   bool    `json:"fill_after"`
}

type FrameResponse struct {
	Bearing float64       `json:"bearing"`
	Label   string        `json:"label"`
	Sweep   SweepResponse `json:"sweep"`
	Stamp   time.Time     `json:"stamp"`
}

type CompassResponse struct {
	State    string         `json:"state"`
	Sensor   string         `json:"sensor,omitempty"`
	Degraded bool           `json:"degraded"`
	Last     *FrameResponse `json:"last"`
}

func FrameFromDomain(f domain.CompassFrame) FrameResponse {
	return FrameResponse{
		Bearing: f.Bearing,
		Label:   f.Label,
		Sweep: SweepResponse{
			FromDegrees: f.Sweep.FromDegrees,
			ToDegrees:   f.Sweep.ToDegrees,
			DurationMs:  f.Sweep.Duration.Milliseconds(),
			FillAfter:   f.Sweep.FillAfter,
		},
		Stamp: f.Stamp,
	}
}

// SensorMessage is one reading pushed by a remote device. Either Values (raw, as
// the platform reports them) or Heading (compass degrees, e.g. from a browser's
// webkitCompassHeading) must be set.
type SensorMessage struct {
	Kind            string    `json:"kind"`
	Values          []float64 `json:"values"`
	Heading         *float64  `json:"heading"`
	Accuracy        int       `json:"accuracy"`
	AccuracyChanged bool      `json:"accuracy_changed"`
}

// Event converts a raw reading. Heading messages have no kind of their own; use
// HeadingEvent for them.
func (m SensorMessage) Event() domain.SensorEvent {
	return domain.SensorEvent{
		Kind:            domain.SensorKind(m.Kind),
		Values:          m.Values,
		Accuracy:        m.Accuracy,
		AccuracyChanged: m.AccuracyChanged,
	}
}

// HeadingEvent expresses the message's heading, in degrees, as a reading of kind.
func (m SensorMessage) HeadingEvent(kind domain.SensorKind) domain.SensorEvent {
	ev := domain.HeadingReading(kind, *m.Heading)
	ev.Accuracy = m.Accuracy
	return ev
}
