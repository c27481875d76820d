package kinematics

import (
	"errors"
	"math"

	"multisim.dev/internal/sim/geom"
)

// ErrLateralTwist is returned when a twist asks a differential drive to move sideways.
var ErrLateralTwist = errors.New("kinematics: diff drive cannot follow a twist with lateral velocity")

// WheelAngles holds a left/right pair of wheel angles (or angle deltas, or angular velocities).
type WheelAngles struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Twist is a planar body twist.
type Twist struct {
	Omega float64 `json:"omega"`
	X     float64 `json:"vx"`
	Y     float64 `json:"vy"`
}

// DiffDrive tracks the pose and wheel angles of a differential-drive robot.
type DiffDrive struct {
	WheelRadius float64
	TrackWidth  float64

	Phi  WheelAngles
	Pose geom.Pose
}

func New(wheelRadius, trackWidth float64) DiffDrive {
	return DiffDrive{WheelRadius: wheelRadius, TrackWidth: trackWidth}
}

// BodyTwist returns the twist produced by rotating the wheels by delta over unit time.
func (d DiffDrive) BodyTwist(delta WheelAngles) Twist {
	return Twist{
		Omega: d.WheelRadius * (delta.Right - delta.Left) / d.TrackWidth,
		X:     d.WheelRadius * (delta.Left + delta.Right) / 2,
	}
}

// Integrate returns the pose reached from p after the wheels rotate by delta.
func (d DiffDrive) Integrate(p geom.Pose, delta WheelAngles) geom.Pose {
	return IntegrateTwist(p, d.BodyTwist(delta))
}

// DriveWheels applies a wheel-angle delta to the tracked pose and wheel angles.
func (d *DiffDrive) DriveWheels(delta WheelAngles) {
	d.Pose = d.Integrate(d.Pose, delta)
	d.Phi.Left = geom.NormalizeAngle(d.Phi.Left + delta.Left)
	d.Phi.Right = geom.NormalizeAngle(d.Phi.Right + delta.Right)
}

// TwistToWheels is the inverse kinematics: the wheel velocities that realise t.
func (d DiffDrive) TwistToWheels(t Twist) (WheelAngles, error) {
	if t.Y != 0 {
		return WheelAngles{}, ErrLateralTwist
	}
	half := d.TrackWidth / 2
	return WheelAngles{
		Left:  (t.X - half*t.Omega) / d.WheelRadius,
		Right: (t.X + half*t.Omega) / d.WheelRadius,
	}, nil
}

// IntegrateTwist follows the constant twist t for unit time starting at p.
func IntegrateTwist(p geom.Pose, t Twist) geom.Pose {
	var body geom.Pose
	if math.Abs(t.Omega) < 1e-12 {
		body = geom.Pose{X: t.X, Y: t.Y}
	} else {
		s, c := math.Sin(t.Omega), math.Cos(t.Omega)
		body = geom.Pose{
			X:     (t.X*s + t.Y*(c-1)) / t.Omega,
			Y:     (t.Y*s + t.X*(1-c)) / t.Omega,
			Theta: t.Omega,
		}
	}
	return p.Compose(body)
}
