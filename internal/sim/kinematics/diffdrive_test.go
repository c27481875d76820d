package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multisim.dev/internal/sim/geom"
)

const (
	wheelRadius = 0.033
	trackWidth  = 0.16
)

func TestDriveWheels_Straight(t *testing.T) {
	d := New(wheelRadius, trackWidth)
	d.DriveWheels(WheelAngles{Left: 1, Right: 1})
	assert.InDelta(t, wheelRadius, d.Pose.X, 1e-12)
	assert.InDelta(t, 0, d.Pose.Y, 1e-12)
	assert.InDelta(t, 0, d.Pose.Theta, 1e-12)
	assert.InDelta(t, 1.0, d.Phi.Left, 1e-12)
	assert.InDelta(t, 1.0, d.Phi.Right, 1e-12)
}

func TestDriveWheels_PureRotation(t *testing.T) {
	d := New(wheelRadius, trackWidth)
	// Wheel travel of pi*track/4 on each side turns the body by pi/2.
	phi := math.Pi * trackWidth / 4 / wheelRadius
	d.DriveWheels(WheelAngles{Left: -phi, Right: phi})
	assert.InDelta(t, 0, d.Pose.X, 1e-12)
	assert.InDelta(t, 0, d.Pose.Y, 1e-12)
	assert.InDelta(t, math.Pi/2, d.Pose.Theta, 1e-12)
}

func TestDriveWheels_Arc(t *testing.T) {
	d := New(wheelRadius, trackWidth)
	d.Pose = geom.Pose{Theta: math.Pi / 2}
	tw := Twist{Omega: math.Pi / 2, X: 1}
	w, err := d.TwistToWheels(tw)
	require.NoError(t, err)
	d.DriveWheels(w)
	// Quarter circle of radius 2/pi turning left from heading +y.
	rad := 2 / math.Pi
	assert.InDelta(t, -rad, d.Pose.X, 1e-9)
	assert.InDelta(t, rad, d.Pose.Y, 1e-9)
	assert.InDelta(t, math.Pi, d.Pose.Theta, 1e-9)
}

func TestTwistToWheels_RoundTrip(t *testing.T) {
	d := New(wheelRadius, trackWidth)
	tw := Twist{Omega: 0.8, X: 0.12}
	w, err := d.TwistToWheels(tw)
	require.NoError(t, err)
	back := d.BodyTwist(w)
	assert.InDelta(t, tw.Omega, back.Omega, 1e-12)
	assert.InDelta(t, tw.X, back.X, 1e-12)
}

func TestTwistToWheels_RejectsLateral(t *testing.T) {
	d := New(wheelRadius, trackWidth)
	_, err := d.TwistToWheels(Twist{X: 1, Y: 0.1})
	assert.ErrorIs(t, err, ErrLateralTwist)
}

func TestIntegrate_DoesNotMutate(t *testing.T) {
	d := New(wheelRadius, trackWidth)
	start := geom.Pose{X: 1, Y: 2, Theta: 0.3}
	d.Pose = start
	_ = d.Integrate(start, WheelAngles{Left: 2, Right: 3})
	assert.Equal(t, start, d.Pose)
}
