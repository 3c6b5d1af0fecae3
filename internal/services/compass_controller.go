package services

import (
	"context"
	"fmt"
	"home-compass-service/internal/domain"
	"home-compass-service/internal/platform/obs"
	"home-compass-service/internal/ports"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const MsgNoCompassSensor = "No compass sensor found on this device."

// CompassState tells whether the compass screen is open.
type CompassState string

const (
	CompassInactive CompassState = "inactive"
	CompassActive   CompassState = "active"
)

// CompassStatus is a point-in-time view of the compass screen.
type CompassStatus struct {
	State    CompassState
	Sensor   domain.SensorKind
	Degraded bool
	Last     *domain.CompassFrame
}

// CompassController turns orientation samples into needle sweeps. The sensor is
// chosen once at construction: rotation vector first, then the legacy orientation
// sensor. Without either the controller runs degraded and never renders.
type CompassController struct {
	sensor   ports.OrientationSensor
	renderer ports.CompassRenderer
	notifier ports.Notifier
	now      func() time.Time

	// Serialises Activate and Deactivate so a new subscription never overlaps the old one.
	opMu sync.Mutex

	mu      sync.Mutex
	state   CompassState
	needle  float64
	last    *domain.CompassFrame
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewCompassController picks the best sensor src offers. A nil renderer or
// notifier discards its output.
func NewCompassController(src ports.SensorSource, renderer ports.CompassRenderer, notifier ports.Notifier) *CompassController {
	c := &CompassController{
		renderer: renderer,
		notifier: notifier,
		now:      time.Now,
		state:    CompassInactive,
	}
	if c.renderer == nil {
		c.renderer = discard{}
	}
	if c.notifier == nil {
		c.notifier = discard{}
	}

	if src != nil {
		for _, kind := range []domain.SensorKind{domain.SensorRotationVector, domain.SensorOrientation} {
			if s, ok := src.Sensor(kind); ok {
				c.sensor = s
				break
			}
		}
	}
	if c.sensor == nil {
		logrus.WithError(domain.ErrNoSensorAvailable).Warn("compass running without a sensor")
	}
	return c
}

// Activate opens the compass screen. The subscription lives until Deactivate is
// called, ctx ends or the sensor closes its stream. Activating twice is a no-op.
func (c *CompassController) Activate(ctx context.Context) (err error) {
	defer obs.Time(ctx, "compass.activate")(&err)

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.state == CompassActive {
		c.mu.Unlock()
		return nil
	}
	c.needle = 0
	c.last = nil

	if c.sensor == nil {
		c.state = CompassActive
		c.mu.Unlock()
		c.notifier.Notify(MsgNoCompassSensor)
		return nil
	}
	c.mu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	events, err := c.sensor.Subscribe(loopCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("activate compass: subscribe %s: %w", c.sensor.Kind(), err)
	}

	stopped := make(chan struct{})
	c.mu.Lock()
	c.state = CompassActive
	c.cancel = cancel
	c.stopped = stopped
	c.mu.Unlock()

	go c.run(loopCtx, events, stopped)
	return nil
}

// Deactivate leaves the compass screen and returns once the sensor is released.
func (c *CompassController) Deactivate() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	cancel, stopped := c.cancel, c.stopped
	c.state = CompassInactive
	c.cancel, c.stopped = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
}

func (c *CompassController) Status() CompassStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := CompassStatus{State: c.state, Degraded: c.sensor == nil}
	if c.sensor != nil {
		st.Sensor = c.sensor.Kind()
	}
	if c.last != nil {
		f := *c.last
		st.Last = &f
	}
	return st
}

func (c *CompassController) run(ctx context.Context, events <-chan domain.SensorEvent, stopped chan struct{}) {
	defer close(stopped)
	defer c.release(stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok || ctx.Err() != nil {
				return
			}
			c.handle(ev, stopped)
		}
	}
}

// release runs once per activation when its event loop exits.
func (c *CompassController) release(stopped chan struct{}) {
	if err := c.sensor.Unsubscribe(); err != nil {
		logrus.WithError(err).WithField("sensor", c.sensor.Kind()).Warn("compass unsubscribe failed")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped == stopped {
		c.cancel()
		c.state = CompassInactive
		c.cancel, c.stopped = nil, nil
	}
}

// handle renders one sample. Samples still queued when the activation that read
// them has ended are dropped.
func (c *CompassController) handle(ev domain.SensorEvent, stopped chan struct{}) {
	if ev.AccuracyChanged {
		return
	}

	rad, err := domain.HeadingRadians(ev)
	if err != nil {
		logrus.WithError(err).WithField("sensor", ev.Kind).Debug("skipping sensor sample")
		return
	}
	bearing := domain.NormalizeDegrees(rad * 180 / math.Pi)

	c.mu.Lock()
	if c.stopped != stopped {
		c.mu.Unlock()
		return
	}
	frame := domain.CompassFrame{
		Bearing: bearing,
		Label:   domain.BearingLabel(bearing),
		Sweep: domain.Sweep{
			FromDegrees: c.needle,
			ToDegrees:   -bearing,
			Duration:    domain.SweepDuration,
			FillAfter:   true,
		},
		Stamp: c.now(),
	}
	c.needle = -bearing
	c.last = &frame
	c.mu.Unlock()

	c.renderer.Render(frame)
}
