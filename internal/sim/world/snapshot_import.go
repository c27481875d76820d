package world

import (
	"context"
	"fmt"

	"multisim.dev/internal/persistence/snapshot"
	"multisim.dev/internal/sim/control"
	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/lidar"
	"multisim.dev/internal/sim/maze"
	"multisim.dev/internal/sim/process"
)

// ConfigFromSnapshot rebuilds the config a snapshot was taken with.
func ConfigFromSnapshot(s snapshot.SnapshotV1) WorldConfig {
	cfg := WorldConfig{
		RunID:              s.Header.RunID,
		Seed:               s.Seed,
		NumRobots:          s.NumRobots,
		TickRateHz:         s.TickRate,
		SensorEveryTicks:   s.SensorEveryTicks,
		PathEveryTicks:     s.PathEveryTicks,
		SnapshotEveryTicks: s.SnapshotEveryTicks,
		Maze: maze.Params{
			ArenaXMin:        s.Maze.ArenaXMin,
			ArenaXMax:        s.Maze.ArenaXMax,
			ArenaYMin:        s.Maze.ArenaYMin,
			ArenaYMax:        s.Maze.ArenaYMax,
			MinCorridorWidth: s.Maze.MinCorridorWidth,
			WallLength:       s.Maze.WallLength,
			WallBreadth:      s.Maze.WallBreadth,
			WallCount:        s.Maze.WallCount,
			MaxAttempts:      s.Maze.MaxAttempts,
		},
		Process: process.Params{
			MotorCmdPerRadSec:  s.Process.MotorCmdPerRadSec,
			EncoderTicksPerRad: s.Process.EncoderTicksPerRad,
			InputNoise:         s.Process.InputNoise,
			SlipFraction:       s.Process.SlipFraction,
		},
		Control: control.Params{
			WheelRadius:        s.Control.WheelRadius,
			TrackWidth:         s.Control.TrackWidth,
			MotorCmdMax:        s.Control.MotorCmdMax,
			MotorCmdPerRadSec:  s.Process.MotorCmdPerRadSec,
			EncoderTicksPerRad: s.Process.EncoderTicksPerRad,
		},
		Lidar: lidar.Config{
			MinRange:       s.Lidar.MinRange,
			MaxRange:       s.Lidar.MaxRange,
			AngleIncrement: s.Lidar.AngleIncrement,
			Samples:        s.Lidar.Samples,
			Resolution:     s.Lidar.Resolution,
			Variance:       s.Lidar.Variance,
		},
		CollisionRadius: s.CollisionRadius,
	}
	for _, c := range s.Obstacles {
		cfg.Obstacles = append(cfg.Obstacles, geom.Circle{Center: geom.Point{X: c.X, Y: c.Y}, R: c.R})
	}
	return cfg
}

// NewFromSnapshot regenerates the maze from the snapshot's seed and restores
// the dynamic state on top of it.
func NewFromSnapshot(ctx context.Context, s snapshot.SnapshotV1) (*World, error) {
	w, err := New(ctx, ConfigFromSnapshot(s))
	if err != nil {
		return nil, err
	}
	if err := w.ImportSnapshot(s); err != nil {
		return nil, err
	}
	return w, nil
}

// ImportSnapshot restores robots and the tick counter. The world must have
// been built from the same seed and parameters; the regenerated walls are
// checked against the snapshot.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("import snapshot: unsupported version %d", s.Header.Version)
	}
	if s.Seed != w.cfg.Seed {
		return fmt.Errorf("import snapshot: seed %d does not match world seed %d", s.Seed, w.cfg.Seed)
	}
	if len(s.Walls) != len(w.maze.Walls) {
		return fmt.Errorf("import snapshot: %d walls, regenerated maze has %d", len(s.Walls), len(w.maze.Walls))
	}
	for i, wl := range w.maze.Walls {
		sw := s.Walls[i]
		if sw.X != wl.Center.X || sw.Y != wl.Center.Y || sw.Orientation != int(wl.Orientation) {
			return fmt.Errorf("import snapshot: wall %d differs from regenerated maze", i)
		}
	}
	if len(s.Robots) != len(w.robots) {
		return fmt.Errorf("import snapshot: %d robots, world has %d", len(s.Robots), len(w.robots))
	}

	for i, rv := range s.Robots {
		r := w.robots[i]
		r.Drive.Pose = geom.Pose{X: rv.Pose[0], Y: rv.Pose[1], Theta: rv.Pose[2]}
		r.Drive.Phi.Left, r.Drive.Phi.Right = rv.Phi[0], rv.Phi[1]
		r.Proc.SetEncoders(process.Encoders{Left: rv.Encoders[0], Right: rv.Encoders[1]})
		r.Cmd = process.WheelCommand{Left: rv.Command[0], Right: rv.Command[1]}
		r.Path = r.Path[:0]
		for _, q := range rv.Path {
			r.Path = append(r.Path, geom.Pose{X: q[0], Y: q[1], Theta: q[2]})
		}
		r.Scan = nil
		r.ScanTick = 0
		if len(rv.RNG) > 0 {
			if err := r.Src.Restore(rv.RNG); err != nil {
				return fmt.Errorf("import snapshot: robot %d rng: %w", i, err)
			}
		}
	}
	w.tick.Store(s.Header.Tick)
	return nil
}
