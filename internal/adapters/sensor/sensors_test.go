package sensor

import (
	"context"
	"home-compass-service/internal/domain"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceSelectsByKind(t *testing.T) {
	src := NewSource(NewPushSensor(domain.SensorOrientation))

	_, ok := src.Sensor(domain.SensorRotationVector)
	assert.False(t, ok)
	sn, ok := src.Sensor(domain.SensorOrientation)
	require.True(t, ok)
	assert.Equal(t, domain.SensorOrientation, sn.Kind())
}

func TestPushSensorLifecycle(t *testing.T) {
	p := NewPushSensor(domain.SensorRotationVector)
	assert.False(t, p.Push(domain.SensorEvent{}), "no subscriber yet")

	ch, err := p.Subscribe(context.Background())
	require.NoError(t, err)

	_, err = p.Subscribe(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	require.True(t, p.Push(domain.SensorEvent{Kind: domain.SensorOrientation, Values: []float64{1}}))
	ev := <-ch
	assert.Equal(t, domain.SensorRotationVector, ev.Kind, "kind is forced to the sensor's own")

	require.NoError(t, p.Unsubscribe())
	_, open := <-ch
	assert.False(t, open)
	require.NoError(t, p.Unsubscribe(), "second unsubscribe is a no-op")

	// Can subscribe again after release.
	_, err = p.Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Unsubscribe())
}

func TestPushSensorClosesWhenContextEnds(t *testing.T) {
	p := NewPushSensor(domain.SensorOrientation)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := p.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}
	assert.Eventually(t, func() bool { return !p.Subscribed() }, time.Second, time.Millisecond)
}

func TestDemoSensorProducesHeadings(t *testing.T) {
	for _, kind := range []domain.SensorKind{domain.SensorRotationVector, domain.SensorOrientation} {
		d := NewDemoSensor(kind, time.Millisecond)
		ch, err := d.Subscribe(context.Background())
		require.NoError(t, err)

		ev := <-ch
		rad, err := domain.HeadingRadians(ev)
		require.NoError(t, err)
		assert.InDelta(t, 3, domain.NormalizeDegrees(rad*180/math.Pi), 1e-6, "kind %s", kind)

		require.NoError(t, d.Unsubscribe())
	}
}
