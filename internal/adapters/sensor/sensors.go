package sensor

import (
	"context"
	"home-compass-service/internal/domain"
	"home-compass-service/internal/ports"
	"math"
	"time"
)

// Source is a device sensor manager exposing at most one sensor per kind.
type Source struct {
	sensors map[domain.SensorKind]ports.OrientationSensor
}

func NewSource(sensors ...ports.OrientationSensor) *Source {
	s := &Source{sensors: make(map[domain.SensorKind]ports.OrientationSensor, len(sensors))}
	for _, sn := range sensors {
		s.sensors[sn.Kind()] = sn
	}
	return s
}

func (s *Source) Sensor(kind domain.SensorKind) (ports.OrientationSensor, bool) {
	sn, ok := s.sensors[kind]
	return sn, ok
}

// PushSensor forwards readings that arrive from outside the process, e.g. a phone
// browser streaming DeviceOrientation events.
type PushSensor struct {
	feed
}

func NewPushSensor(kind domain.SensorKind) *PushSensor {
	return &PushSensor{feed: feed{kind: kind}}
}

func (p *PushSensor) Subscribe(ctx context.Context) (<-chan domain.SensorEvent, error) {
	ch, _, err := p.subscribe(ctx)
	return ch, err
}

// Push hands ev to the subscriber; false means it was dropped.
func (p *PushSensor) Push(ev domain.SensorEvent) bool {
	ev.Kind = p.kind
	return p.push(ev)
}

// DemoSensor simulates a device turning slowly clockwise.
type DemoSensor struct {
	feed
	interval time.Duration
	stepDeg  float64
}

func NewDemoSensor(kind domain.SensorKind, interval time.Duration) *DemoSensor {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &DemoSensor{feed: feed{kind: kind}, interval: interval, stepDeg: 3}
}

func (d *DemoSensor) Subscribe(ctx context.Context) (<-chan domain.SensorEvent, error) {
	ch, subCtx, err := d.subscribe(ctx)
	if err != nil {
		return nil, err
	}
	go d.run(subCtx)
	return ch, nil
}

func (d *DemoSensor) run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	heading := 0.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			heading = math.Mod(heading+d.stepDeg, 360)
			d.push(d.reading(heading))
		}
	}
}

// reading builds the raw event a device pointing at headingDeg would report.
func (d *DemoSensor) reading(headingDeg float64) domain.SensorEvent {
	return domain.HeadingReading(d.kind, headingDeg)
}
