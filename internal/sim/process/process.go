// Package process models the actuation side of a robot: noisy motor commands,
// wheel slip and quantized wheel encoders.
package process

import (
	"fmt"
	"math"

	"multisim.dev/internal/sim/kinematics"
	"multisim.dev/internal/sim/rng"
)

type Params struct {
	// MotorCmdPerRadSec converts a motor command into wheel velocity [rad/s].
	MotorCmdPerRadSec float64
	// EncoderTicksPerRad is the encoder resolution.
	EncoderTicksPerRad float64
	// InputNoise is the variance of the Gaussian added to every nonzero command.
	InputNoise float64
	// SlipFraction bounds the uniform slip applied to each wheel's actual motion.
	SlipFraction float64
}

func (p Params) Validate() error {
	if p.MotorCmdPerRadSec <= 0 {
		return fmt.Errorf("process: motor_cmd_per_rad_sec must be > 0")
	}
	if p.EncoderTicksPerRad <= 0 {
		return fmt.Errorf("process: encoder_ticks_per_rad must be > 0")
	}
	if p.InputNoise < 0 {
		return fmt.Errorf("process: input_noise must be >= 0")
	}
	if p.SlipFraction < 0 {
		return fmt.Errorf("process: slip_fraction must be >= 0")
	}
	return nil
}

// WheelCommand is a left/right pair of motor commands.
type WheelCommand struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

func (c WheelCommand) IsZero() bool { return c.Left == 0 && c.Right == 0 }

// Encoders holds accumulated encoder ticks.
type Encoders struct {
	Left  int64 `json:"left"`
	Right int64 `json:"right"`
}

// Simulator advances one robot's encoders and reports how far its wheels actually turned.
// It owns no pose; the caller feeds the returned delta to the kinematic integrator.
type Simulator struct {
	p   Params
	src *rng.Source
	enc Encoders
}

func New(p Params, src *rng.Source) *Simulator {
	return &Simulator{p: p, src: src}
}

func (s *Simulator) Params() Params     { return s.p }
func (s *Simulator) Encoders() Encoders { return s.enc }

// SetEncoders overwrites the accumulated ticks. Only control operations and
// snapshot restore use it.
func (s *Simulator) SetEncoders(e Encoders) { s.enc = e }

// Step applies cmd for dt seconds. Noise is drawn for nonzero commands only,
// left before right, and slip is drawn after noise, left before right.
func (s *Simulator) Step(cmd WheelCommand, dt float64) kinematics.WheelAngles {
	left := s.noisy(cmd.Left)
	right := s.noisy(cmd.Right)

	s.enc.Left += s.ticks(left, dt)
	s.enc.Right += s.ticks(right, dt)

	slipL := s.src.Uniform(-s.p.SlipFraction, s.p.SlipFraction)
	slipR := s.src.Uniform(-s.p.SlipFraction, s.p.SlipFraction)
	return kinematics.WheelAngles{
		Left:  left * (1 + slipL) * s.p.MotorCmdPerRadSec * dt,
		Right: right * (1 + slipR) * s.p.MotorCmdPerRadSec * dt,
	}
}

func (s *Simulator) noisy(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v + s.src.Gaussian(s.p.InputNoise)
}

// math.Round rounds half away from zero.
func (s *Simulator) ticks(v, dt float64) int64 {
	return int64(math.Round(v * s.p.MotorCmdPerRadSec * s.p.EncoderTicksPerRad * dt))
}
