package process

import (
	"math"
	"testing"

	"multisim.dev/internal/sim/rng"
)

func testParams() Params {
	return Params{
		MotorCmdPerRadSec:  0.024,
		EncoderTicksPerRad: 651.8986,
		InputNoise:         0.5,
		SlipFraction:       0.1,
	}
}

func TestStep_ZeroCommandLeavesEncoders(t *testing.T) {
	s := New(testParams(), rng.ForRobot(1, 0))
	for i := 0; i < 10; i++ {
		d := s.Step(WheelCommand{}, 0.01)
		if d.Left != 0 || d.Right != 0 {
			t.Fatalf("tick %d: wheel delta=%+v want zero", i, d)
		}
	}
	if e := s.Encoders(); e != (Encoders{}) {
		t.Fatalf("encoders=%+v want zero", e)
	}
}

func TestStep_ZeroCommandDeterministic(t *testing.T) {
	run := func() []Encoders {
		s := New(testParams(), rng.ForRobot(7, 0))
		out := make([]Encoders, 0, 20)
		for i := 0; i < 20; i++ {
			s.Step(WheelCommand{Left: 0, Right: 100}, 0.01)
			out = append(out, s.Encoders())
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tick %d: %+v vs %+v", i, a[i], b[i])
		}
		if a[i].Left != 0 {
			t.Fatalf("tick %d: zero-commanded wheel moved: %+v", i, a[i])
		}
	}
}

func TestStep_NoiselessTicks(t *testing.T) {
	p := Params{MotorCmdPerRadSec: 0.5, EncoderTicksPerRad: 100}
	s := New(p, rng.ForRobot(1, 0))
	s.SetEncoders(Encoders{Left: 3, Right: -3})

	d := s.Step(WheelCommand{Left: 10, Right: -10}, 0.1)
	// 10 * 0.5 * 100 * 0.1 = 50 ticks.
	if e := s.Encoders(); e.Left != 53 || e.Right != -53 {
		t.Fatalf("encoders=%+v", e)
	}
	if math.Abs(d.Left-0.5) > 1e-12 || math.Abs(d.Right+0.5) > 1e-12 {
		t.Fatalf("wheel delta=%+v", d)
	}
}

func TestStep_RoundsHalfAwayFromZero(t *testing.T) {
	p := Params{MotorCmdPerRadSec: 1, EncoderTicksPerRad: 1}
	s := New(p, rng.ForRobot(1, 0))
	s.Step(WheelCommand{Left: 2.5, Right: -2.5}, 1)
	if e := s.Encoders(); e.Left != 3 || e.Right != -3 {
		t.Fatalf("encoders=%+v want {3 -3}", e)
	}
}

func TestStep_SlipBounded(t *testing.T) {
	p := Params{MotorCmdPerRadSec: 1, EncoderTicksPerRad: 1, SlipFraction: 0.2}
	s := New(p, rng.ForRobot(3, 2))
	for i := 0; i < 500; i++ {
		d := s.Step(WheelCommand{Left: 1, Right: 1}, 1)
		if d.Left < 0.8 || d.Left > 1.2 || d.Right < 0.8 || d.Right > 1.2 {
			t.Fatalf("step %d: delta=%+v outside slip bound", i, d)
		}
	}
	// Encoders ignore slip.
	if e := s.Encoders(); e.Left != 500 || e.Right != 500 {
		t.Fatalf("encoders=%+v", e)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := testParams().Validate(); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}
	p := testParams()
	p.EncoderTicksPerRad = 0
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}
