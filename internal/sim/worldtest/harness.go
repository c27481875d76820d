package worldtest

import (
	"context"
	"testing"

	"multisim.dev/internal/persistence/snapshot"
	"multisim.dev/internal/sim/control"
	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/lidar"
	"multisim.dev/internal/sim/maze"
	"multisim.dev/internal/sim/process"
	world "multisim.dev/internal/sim/world"
)

// Config picks the handful of knobs tests vary. Everything else uses a
// burger-like robot in a 5 m arena.
type Config struct {
	Seed      int64
	NumRobots int
	WallCount int
	// Noiseless disables process and lidar noise.
	Noiseless bool
}

// WorldConfig expands c into a full world config.
func (c Config) WorldConfig() world.WorldConfig {
	if c.Seed == 0 {
		c.Seed = 1
	}
	if c.NumRobots == 0 {
		c.NumRobots = 1
	}
	arena := 5.0
	if c.WallCount > 0 {
		arena = 6.0
	}
	cfg := world.WorldConfig{
		RunID:            "harness",
		Seed:             c.Seed,
		NumRobots:        c.NumRobots,
		TickRateHz:       200,
		SensorEveryTicks: 40,
		PathEveryTicks:   100,
		Maze: maze.Params{
			ArenaXMin: arena, ArenaXMax: arena,
			ArenaYMin: arena, ArenaYMax: arena,
			MinCorridorWidth: 0.5,
			WallLength:       1.0,
			WallBreadth:      0.1,
			WallCount:        c.WallCount,
			MaxAttempts:      10000,
		},
		Process: process.Params{
			MotorCmdPerRadSec:  0.024,
			EncoderTicksPerRad: 651.8986469044033,
			InputNoise:         0.01,
			SlipFraction:       0.01,
		},
		Control: control.Params{
			WheelRadius:        0.033,
			TrackWidth:         0.16,
			MotorCmdMax:        265,
			MotorCmdPerRadSec:  0.024,
			EncoderTicksPerRad: 651.8986469044033,
		},
		Lidar: lidar.Config{
			MinRange:       0.12,
			MaxRange:       3.5,
			AngleIncrement: geom.Deg2Rad(1),
			Samples:        360,
			Resolution:     0.01,
			Variance:       0.0001,
		},
		CollisionRadius: 0.11,
	}
	if c.Noiseless {
		cfg.Process.InputNoise = 0
		cfg.Process.SlipFraction = 0
		cfg.Lidar.Variance = 0
	}
	return cfg
}

// Harness drives a world through its exported API only:
// - Step/StepFor advance it with StepOnce
// - Reset/Teleport queue control operations for the next step
// - Pose/Encoders read state back through ExportSnapshot
//
// Start hands the world to its own loop; after that only channel-based
// APIs may be used.
type Harness struct {
	T *testing.T
	W *world.World

	pendingOps []world.ControlOp
}

func New(t *testing.T, c Config) *Harness {
	t.Helper()
	w, err := world.New(context.Background(), c.WorldConfig())
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, W: w}
}

// NewFromSnapshot restores a world the way cmd/replay does.
func NewFromSnapshot(t *testing.T, s snapshot.SnapshotV1) *Harness {
	t.Helper()
	w, err := world.NewFromSnapshot(context.Background(), s)
	if err != nil {
		t.Fatalf("world.NewFromSnapshot: %v", err)
	}
	return &Harness{T: t, W: w}
}

// Start runs the world loop until ctx is canceled.
func (h *Harness) Start(ctx context.Context) {
	go func() { _ = h.W.Run(ctx) }()
}

// Drive returns a one-robot command batch.
func Drive(robot int, left, right float64) []world.CommandEnvelope {
	return []world.CommandEnvelope{{Robot: robot, Cmd: process.WheelCommand{Left: left, Right: right}}}
}

// Step runs one tick with cmds plus any queued control operations and
// returns the tick it ran as and the resulting digest.
func (h *Harness) Step(cmds ...world.CommandEnvelope) (uint64, string) {
	ops := h.pendingOps
	h.pendingOps = nil
	return h.W.StepOnce(cmds, ops)
}

// StepFor runs n ticks without new commands and returns the last digest.
func (h *Harness) StepFor(n int) string {
	var d string
	for i := 0; i < n; i++ {
		_, d = h.Step()
	}
	return d
}

func (h *Harness) Reset() {
	h.pendingOps = append(h.pendingOps, world.ControlOp{Kind: world.ControlReset, Actor: "harness"})
}

func (h *Harness) Teleport(robot int, p geom.Pose) {
	h.pendingOps = append(h.pendingOps, world.ControlOp{Kind: world.ControlTeleport, Actor: "harness", Robot: robot, Pose: p})
}

func (h *Harness) robot(i int) snapshot.RobotV1 {
	h.T.Helper()
	s := h.W.ExportSnapshot()
	if i < 0 || i >= len(s.Robots) {
		h.T.Fatalf("no robot %d", i)
	}
	return s.Robots[i]
}

func (h *Harness) Pose(i int) geom.Pose {
	r := h.robot(i)
	return geom.Pose{X: r.Pose[0], Y: r.Pose[1], Theta: r.Pose[2]}
}

func (h *Harness) Encoders(i int) [2]int64 { return h.robot(i).Encoders }

// Recorder keeps every tick entry the world logs.
type Recorder struct {
	Entries []world.TickLogEntry
}

func (r *Recorder) WriteTick(e world.TickLogEntry) error {
	r.Entries = append(r.Entries, e)
	return nil
}

// Replay feeds logged entries into h and fails on the first digest mismatch.
func (h *Harness) Replay(entries []world.TickLogEntry) {
	h.T.Helper()
	for i, e := range entries {
		if want := h.W.CurrentTick() + 1; e.Tick != want {
			h.T.Fatalf("entry %d: tick %d, world expects %d", i, e.Tick, want)
		}
		_, d := h.W.StepOnce(e.Commands, e.Controls)
		if d != e.Digest {
			h.T.Fatalf("entry %d (tick %d): digest %s want %s", i, e.Tick, d, e.Digest)
		}
	}
}
