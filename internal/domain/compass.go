package domain

import (
	"fmt"
	"math"
	"time"
)

// SweepDuration is how long the needle takes to reach a new bearing.
const SweepDuration = 250 * time.Millisecond

// SensorKind identifies the kind of orientation reading a sensor delivers.
type SensorKind string

const (
	SensorRotationVector SensorKind = "rotation_vector"
	SensorOrientation    SensorKind = "orientation"
)

// SensorEvent is a single delivery from an orientation sensor. Accuracy-change
// notifications carry AccuracyChanged=true and no values.
type SensorEvent struct {
	Kind            SensorKind
	Values          []float64
	Accuracy        int
	AccuracyChanged bool
}

// Sweep describes a needle rotation for an external renderer. Angles are in degrees;
// the end state persists until the next sweep replaces it.
type Sweep struct {
	FromDegrees float64
	ToDegrees   float64
	Duration    time.Duration
	FillAfter   bool
}

// CompassFrame is what the compass screen draws for one sample.
type CompassFrame struct {
	Bearing float64
	Label   string
	Sweep   Sweep
	Stamp   time.Time
}

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	n := math.Mod(deg+360, 360)
	if n < 0 {
		n += 360
	}
	if n >= 360 {
		n = 0
	}
	return n
}

// BearingLabel renders the numeric readout under the needle.
func BearingLabel(bearing float64) string {
	return fmt.Sprintf("Bearing: %d°", int(math.Round(bearing)))
}

// HeadingRadians extracts the heading (yaw) from a raw sensor reading.
func HeadingRadians(ev SensorEvent) (float64, error) {
	switch ev.Kind {
	case SensorRotationVector:
		m, err := RotationMatrixFromVector(ev.Values)
		if err != nil {
			return 0, err
		}
		yaw, _, _ := OrientationFromMatrix(m)
		return yaw, nil
	case SensorOrientation:
		if len(ev.Values) < 1 {
			return 0, fmt.Errorf("heading: orientation reading has no values")
		}
		return ev.Values[0], nil
	default:
		return 0, fmt.Errorf("heading: unsupported sensor kind %q", ev.Kind)
	}
}

// HeadingReading builds a reading of the given kind that points the device at
// headingDeg. Rotation vectors are unit quaternions about the z axis; azimuth grows
// clockwise while a z rotation is counterclockwise, hence the negated angle.
func HeadingReading(kind SensorKind, headingDeg float64) SensorEvent {
	rad := headingDeg * math.Pi / 180
	if kind == SensorRotationVector {
		half := -rad / 2
		return SensorEvent{Kind: kind, Values: []float64{0, 0, math.Sin(half), math.Cos(half)}}
	}
	return SensorEvent{Kind: kind, Values: []float64{rad, 0, 0}}
}

// RotationMatrixFromVector converts a rotation-vector reading (x, y, z[, w]) to a
// row-major 3x3 rotation matrix. When w is absent it is derived from the unit quaternion.
func RotationMatrixFromVector(v []float64) ([9]float64, error) {
	var m [9]float64
	if len(v) < 3 {
		return m, fmt.Errorf("rotation matrix: need at least 3 values, got %d", len(v))
	}

	q1, q2, q3 := v[0], v[1], v[2]
	var q0 float64
	if len(v) >= 4 {
		q0 = v[3]
	} else {
		q0 = 1 - q1*q1 - q2*q2 - q3*q3
		if q0 > 0 {
			q0 = math.Sqrt(q0)
		} else {
			q0 = 0
		}
	}

	sqQ1 := 2 * q1 * q1
	sqQ2 := 2 * q2 * q2
	sqQ3 := 2 * q3 * q3
	q1q2 := 2 * q1 * q2
	q3q0 := 2 * q3 * q0
	q1q3 := 2 * q1 * q3
	q2q0 := 2 * q2 * q0
	q2q3 := 2 * q2 * q3
	q1q0 := 2 * q1 * q0

	m[0] = 1 - sqQ2 - sqQ3
	m[1] = q1q2 - q3q0
	m[2] = q1q3 + q2q0

	m[3] = q1q2 + q3q0
	m[4] = 1 - sqQ1 - sqQ3
	m[5] = q2q3 - q1q0

	m[6] = q1q3 - q2q0
	m[7] = q2q3 + q1q0
	m[8] = 1 - sqQ1 - sqQ2

	return m, nil
}

// OrientationFromMatrix returns azimuth (yaw), pitch and roll in radians.
func OrientationFromMatrix(m [9]float64) (yaw, pitch, roll float64) {
	yaw = math.Atan2(m[1], m[4])
	pitch = math.Asin(-m[7])
	roll = math.Atan2(-m[6], m[8])
	return yaw, pitch, roll
}
