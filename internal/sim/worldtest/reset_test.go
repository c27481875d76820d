package worldtest

import (
	"math"
	"testing"

	"multisim.dev/internal/sim/geom"
)

func TestReset_RobotZeroBackAtOriginTickZero(t *testing.T) {
	h := New(t, Config{Seed: 1, NumRobots: 2})
	h.Step(Drive(0, 200, 120)...)
	h.StepFor(99)
	if p := h.Pose(0); math.Hypot(p.X, p.Y) < 0.1 {
		t.Fatalf("robot 0 barely moved: %+v", p)
	}
	other := h.Pose(1)

	h.Reset()
	h.Step()
	if got := h.W.CurrentTick(); got != 0 {
		t.Fatalf("tick=%d want 0", got)
	}
	if p := h.Pose(0); p != (geom.Pose{}) {
		t.Fatalf("robot 0 pose=%+v want origin", p)
	}
	if p := h.Pose(1); p != other {
		t.Fatalf("reset moved robot 1: %+v -> %+v", other, p)
	}

	// Robot 0 keeps its last command after a reset.
	h.StepFor(10)
	if p := h.Pose(0); p.X == 0 && p.Y == 0 {
		t.Fatalf("robot 0 stopped after reset")
	}
}

func TestStraightLine_Noiseless(t *testing.T) {
	h := New(t, Config{Noiseless: true})
	// 100 motor units = 2.4 rad/s per wheel = 0.0792 m/s.
	h.Step(Drive(0, 100, 100)...)
	h.StepFor(199)

	p := h.Pose(0)
	if !geom.AlmostEqual(p.X, 0.0792, 1e-9) || p.Y != 0 || p.Theta != 0 {
		t.Fatalf("pose after 1 s=%+v", p)
	}
	enc := h.Encoders(0)
	// round(100 * 0.024 * 651.8986 * 0.005) = 8 ticks per step.
	if enc[0] != 1600 || enc[1] != 1600 {
		t.Fatalf("encoders=%v want 1600", enc)
	}
}

func TestTeleport_KeepsEncoders(t *testing.T) {
	h := New(t, Config{NumRobots: 1, Noiseless: true})
	h.Step(Drive(0, 50, 50)...)
	h.StepFor(9)
	enc := h.Encoders(0)

	h.Step(Drive(0, 0, 0)...)
	h.Teleport(0, geom.Pose{X: -1, Y: 1, Theta: 3 * math.Pi})
	h.Step()

	p := h.Pose(0)
	if p.X != -1 || p.Y != 1 || !geom.AlmostEqual(math.Abs(p.Theta), math.Pi, 1e-12) {
		t.Fatalf("pose=%+v", p)
	}
	if got := h.Encoders(0); got != enc {
		t.Fatalf("encoders %v -> %v", enc, got)
	}
}
