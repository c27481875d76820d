// Package control converts body twists into motor commands and encoder
// readings back into wheel joint states.
package control

import (
	"fmt"
	"math"
	"time"

	"multisim.dev/internal/sim/kinematics"
	"multisim.dev/internal/sim/process"
)

type Params struct {
	WheelRadius        float64
	TrackWidth         float64
	MotorCmdMax        float64
	MotorCmdPerRadSec  float64
	EncoderTicksPerRad float64
}

func (p Params) Validate() error {
	switch {
	case p.WheelRadius <= 0:
		return fmt.Errorf("control: wheel_radius must be > 0")
	case p.TrackWidth <= 0:
		return fmt.Errorf("control: track_width must be > 0")
	case p.MotorCmdMax <= 0:
		return fmt.Errorf("control: motor_cmd_max must be > 0")
	case p.MotorCmdPerRadSec <= 0:
		return fmt.Errorf("control: motor_cmd_per_rad_sec must be > 0")
	case p.EncoderTicksPerRad <= 0:
		return fmt.Errorf("control: encoder_ticks_per_rad must be > 0")
	}
	return nil
}

type Controller struct {
	p     Params
	drive kinematics.DiffDrive
}

func NewController(p Params) *Controller {
	return &Controller{p: p, drive: kinematics.New(p.WheelRadius, p.TrackWidth)}
}

// WheelCommand returns the integer motor commands that best follow t,
// each clamped to [-MotorCmdMax, MotorCmdMax].
func (c *Controller) WheelCommand(t kinematics.Twist) (process.WheelCommand, error) {
	w, err := c.drive.TwistToWheels(t)
	if err != nil {
		return process.WheelCommand{}, err
	}
	return process.WheelCommand{
		Left:  c.clamp(math.Round(w.Left / c.p.MotorCmdPerRadSec)),
		Right: c.clamp(math.Round(w.Right / c.p.MotorCmdPerRadSec)),
	}, nil
}

func (c *Controller) clamp(v float64) float64 {
	return math.Max(-c.p.MotorCmdMax, math.Min(c.p.MotorCmdMax, v))
}

// JointState is the wheel joint position [rad] and velocity [rad/s].
type JointState struct {
	Position kinematics.WheelAngles `json:"position"`
	Velocity kinematics.WheelAngles `json:"velocity"`
}

// JointTracker turns a stream of encoder readings into joint states.
// Positions are relative to the first reading it sees.
type JointTracker struct {
	ticksPerRad float64

	started bool
	origin  process.Encoders
	prev    JointState
	basePos kinematics.WheelAngles
	prevAt  time.Duration
}

func NewJointTracker(ticksPerRad float64) *JointTracker {
	return &JointTracker{ticksPerRad: ticksPerRad}
}

// Update consumes the encoder reading taken at stamp. The first call latches
// the origin and reports zeros. Readings that do not advance the stamp keep the
// previous velocity.
func (j *JointTracker) Update(enc process.Encoders, stamp time.Duration) JointState {
	if !j.started {
		j.started = true
		j.origin = enc
		j.prevAt = stamp
		j.basePos = kinematics.WheelAngles{}
		j.prev = JointState{}
		return j.prev
	}
	next := JointState{
		Position: kinematics.WheelAngles{
			Left:  float64(enc.Left-j.origin.Left) / j.ticksPerRad,
			Right: float64(enc.Right-j.origin.Right) / j.ticksPerRad,
		},
		Velocity: j.prev.Velocity,
	}
	if dt := (stamp - j.prevAt).Seconds(); dt > 0 {
		next.Velocity = kinematics.WheelAngles{
			Left:  (next.Position.Left - j.basePos.Left) / dt,
			Right: (next.Position.Right - j.basePos.Right) / dt,
		}
		j.basePos = next.Position
		j.prevAt = stamp
	} else if dt < 0 {
		// The clock went backwards (simulation reset): restart the velocity window.
		j.basePos = next.Position
		j.prevAt = stamp
	}
	j.prev = next
	return next
}

// Reset forgets the origin so the next reading starts from zero again.
func (j *JointTracker) Reset() { j.started = false }
