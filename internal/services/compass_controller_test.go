package services

import (
	"context"
	"home-compass-service/internal/adapters/sensor"
	"home-compass-service/internal/domain"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orientationEvent(deg float64) domain.SensorEvent {
	return domain.SensorEvent{Values: []float64{deg * math.Pi / 180, 0, 0}}
}

func waitFrames(t *testing.T, rec *recorder, n int) []domain.CompassFrame {
	t.Helper()
	require.Eventually(t, func() bool { return len(rec.Frames()) >= n }, time.Second, time.Millisecond)
	return rec.Frames()
}

func TestCompassPrefersRotationVector(t *testing.T) {
	src := sensor.NewSource(
		sensor.NewPushSensor(domain.SensorOrientation),
		sensor.NewPushSensor(domain.SensorRotationVector),
	)
	c := NewCompassController(src, nil, nil)

	st := c.Status()
	assert.Equal(t, domain.SensorRotationVector, st.Sensor)
	assert.False(t, st.Degraded)
	assert.Equal(t, CompassInactive, st.State)
}

func TestCompassFallsBackToOrientation(t *testing.T) {
	c := NewCompassController(sensor.NewSource(sensor.NewPushSensor(domain.SensorOrientation)), nil, nil)
	assert.Equal(t, domain.SensorOrientation, c.Status().Sensor)
}

func TestCompassSweepsBetweenSamples(t *testing.T) {
	push := sensor.NewPushSensor(domain.SensorOrientation)
	rec := &recorder{}
	c := NewCompassController(sensor.NewSource(push), rec, rec)

	require.NoError(t, c.Activate(context.Background()))
	defer c.Deactivate()

	require.True(t, push.Push(orientationEvent(10)))
	waitFrames(t, rec, 1)
	require.True(t, push.Push(orientationEvent(200)))
	frames := waitFrames(t, rec, 2)

	first := frames[0]
	assert.InDelta(t, 0, first.Sweep.FromDegrees, 1e-9)
	assert.InDelta(t, -10, first.Sweep.ToDegrees, 1e-9)
	assert.Equal(t, "Bearing: 10°", first.Label)

	second := frames[1]
	assert.InDelta(t, -10, second.Sweep.FromDegrees, 1e-9)
	assert.InDelta(t, -200, second.Sweep.ToDegrees, 1e-9)
	assert.Equal(t, "Bearing: 200°", second.Label)
	assert.Equal(t, domain.SweepDuration, second.Sweep.Duration)
	assert.True(t, second.Sweep.FillAfter)

	last := c.Status().Last
	require.NotNil(t, last)
	assert.Equal(t, second.Label, last.Label)
}

func TestCompassNormalisesNegativeHeading(t *testing.T) {
	push := sensor.NewPushSensor(domain.SensorOrientation)
	rec := &recorder{}
	c := NewCompassController(sensor.NewSource(push), rec, nil)
	require.NoError(t, c.Activate(context.Background()))
	defer c.Deactivate()

	push.Push(orientationEvent(-10))
	frames := waitFrames(t, rec, 1)
	assert.InDelta(t, 350, frames[0].Bearing, 1e-9)
	assert.Equal(t, "Bearing: 350°", frames[0].Label)
}

func TestCompassRotationVectorSample(t *testing.T) {
	push := sensor.NewPushSensor(domain.SensorRotationVector)
	rec := &recorder{}
	c := NewCompassController(sensor.NewSource(push), rec, nil)
	require.NoError(t, c.Activate(context.Background()))
	defer c.Deactivate()

	// Device turned 90° clockwise: a -90° rotation about z.
	half := -math.Pi / 4
	push.Push(domain.SensorEvent{Values: []float64{0, 0, math.Sin(half), math.Cos(half)}})

	frames := waitFrames(t, rec, 1)
	assert.InDelta(t, 90, frames[0].Bearing, 1e-6)
	assert.Equal(t, "Bearing: 90°", frames[0].Label)
}

func TestCompassIgnoresAccuracyEvents(t *testing.T) {
	push := sensor.NewPushSensor(domain.SensorOrientation)
	rec := &recorder{}
	c := NewCompassController(sensor.NewSource(push), rec, nil)
	require.NoError(t, c.Activate(context.Background()))
	defer c.Deactivate()

	push.Push(domain.SensorEvent{AccuracyChanged: true, Accuracy: 3})
	push.Push(domain.SensorEvent{Values: nil})
	push.Push(orientationEvent(45))

	frames := waitFrames(t, rec, 1)
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, rec.Frames(), 1)
	assert.Equal(t, "Bearing: 45°", frames[0].Label)
}

func TestCompassDeactivateReleasesSensor(t *testing.T) {
	push := sensor.NewPushSensor(domain.SensorOrientation)
	c := NewCompassController(sensor.NewSource(push), nil, nil)

	require.NoError(t, c.Activate(context.Background()))
	require.NoError(t, c.Activate(context.Background()), "second activate is a no-op")
	assert.True(t, push.Subscribed())
	assert.Equal(t, CompassActive, c.Status().State)

	c.Deactivate()
	assert.False(t, push.Subscribed())
	assert.Equal(t, CompassInactive, c.Status().State)
	assert.False(t, push.Push(orientationEvent(1)))

	c.Deactivate()

	// Reopening starts the needle from north again.
	rec := &recorder{}
	c.renderer = rec
	require.NoError(t, c.Activate(context.Background()))
	defer c.Deactivate()
	push.Push(orientationEvent(30))
	frames := waitFrames(t, rec, 1)
	assert.InDelta(t, 0, frames[0].Sweep.FromDegrees, 1e-9)
}

// gatedRenderer holds the first frame until release is closed.
type gatedRenderer struct {
	recorder
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRenderer) Render(f domain.CompassFrame) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	g.recorder.Render(f)
}

func TestCompassDropsQueuedSamplesAfterDeactivate(t *testing.T) {
	push := sensor.NewPushSensor(domain.SensorOrientation)
	gate := &gatedRenderer{entered: make(chan struct{}), release: make(chan struct{})}
	c := NewCompassController(sensor.NewSource(push), gate, nil)

	require.NoError(t, c.Activate(context.Background()))
	for _, deg := range []float64{10, 20, 30, 40, 50} {
		require.True(t, push.Push(orientationEvent(deg)))
	}
	<-gate.entered

	deactivated := make(chan struct{})
	go func() {
		c.Deactivate()
		close(deactivated)
	}()
	require.Eventually(t, func() bool { return c.Status().State == CompassInactive }, time.Second, time.Millisecond)

	close(gate.release)
	select {
	case <-deactivated:
	case <-time.After(time.Second):
		t.Fatal("deactivate did not return")
	}

	frames := gate.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, "Bearing: 10°", frames[0].Label)
	assert.Equal(t, "Bearing: 10°", c.Status().Last.Label)
}

func TestCompassReleasesWhenContextEnds(t *testing.T) {
	push := sensor.NewPushSensor(domain.SensorOrientation)
	c := NewCompassController(sensor.NewSource(push), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Activate(ctx))
	cancel()

	require.Eventually(t, func() bool {
		return c.Status().State == CompassInactive && !push.Subscribed()
	}, time.Second, time.Millisecond)
}

func TestCompassWithoutSensorIsDegraded(t *testing.T) {
	rec := &recorder{}
	c := NewCompassController(sensor.NewSource(), rec, rec)

	require.NoError(t, c.Activate(context.Background()))
	st := c.Status()
	assert.True(t, st.Degraded)
	assert.Equal(t, CompassActive, st.State)
	assert.Equal(t, []string{MsgNoCompassSensor}, rec.Toasts())
	assert.Empty(t, rec.Frames())

	c.Deactivate()
	assert.Equal(t, CompassInactive, c.Status().State)
}
