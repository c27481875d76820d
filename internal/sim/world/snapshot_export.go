package world

import (
	"multisim.dev/internal/persistence/snapshot"
)

// ExportSnapshot captures the state at the current tick boundary.
// Must be called from the world loop goroutine (or a stopped world).
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	cfg := w.cfg
	s := snapshot.SnapshotV1{
		Header:             snapshot.Header{Version: snapshot.Version, RunID: cfg.RunID, Tick: w.tick.Load()},
		Seed:               cfg.Seed,
		NumRobots:          len(w.robots),
		TickRate:           cfg.TickRateHz,
		SensorEveryTicks:   cfg.SensorEveryTicks,
		PathEveryTicks:     cfg.PathEveryTicks,
		SnapshotEveryTicks: cfg.SnapshotEveryTicks,
		Maze: snapshot.MazeParamsV1{
			ArenaXMin:        cfg.Maze.ArenaXMin,
			ArenaXMax:        cfg.Maze.ArenaXMax,
			ArenaYMin:        cfg.Maze.ArenaYMin,
			ArenaYMax:        cfg.Maze.ArenaYMax,
			MinCorridorWidth: cfg.Maze.MinCorridorWidth,
			WallLength:       cfg.Maze.WallLength,
			WallBreadth:      cfg.Maze.WallBreadth,
			WallCount:        cfg.Maze.WallCount,
			MaxAttempts:      cfg.Maze.MaxAttempts,
		},
		Process: snapshot.ProcessParamsV1{
			MotorCmdPerRadSec:  cfg.Process.MotorCmdPerRadSec,
			EncoderTicksPerRad: cfg.Process.EncoderTicksPerRad,
			InputNoise:         cfg.Process.InputNoise,
			SlipFraction:       cfg.Process.SlipFraction,
		},
		Control: snapshot.ControlParamsV1{
			WheelRadius: cfg.Control.WheelRadius,
			TrackWidth:  cfg.Control.TrackWidth,
			MotorCmdMax: cfg.Control.MotorCmdMax,
		},
		Lidar: snapshot.LidarV1{
			MinRange:       cfg.Lidar.MinRange,
			MaxRange:       cfg.Lidar.MaxRange,
			AngleIncrement: cfg.Lidar.AngleIncrement,
			Samples:        cfg.Lidar.Samples,
			Resolution:     cfg.Lidar.Resolution,
			Variance:       cfg.Lidar.Variance,
		},
		CollisionRadius: cfg.CollisionRadius,
		ArenaWidth:      w.maze.Arena.Width,
		ArenaHeight:     w.maze.Arena.Height,
	}
	for _, c := range cfg.Obstacles {
		s.Obstacles = append(s.Obstacles, snapshot.CircleV1{X: c.Center.X, Y: c.Center.Y, R: c.R})
	}
	for _, wl := range w.maze.Walls {
		s.Walls = append(s.Walls, snapshot.WallV1{
			X:           wl.Center.X,
			Y:           wl.Center.Y,
			Orientation: int(wl.Orientation),
			Length:      wl.Length,
			Breadth:     wl.Breadth,
		})
	}
	for _, r := range w.robots {
		enc := r.Proc.Encoders()
		p := r.Drive.Pose
		rv := snapshot.RobotV1{
			Index:    r.Index,
			Color:    r.Color,
			Pose:     [3]float64{p.X, p.Y, p.Theta},
			Phi:      [2]float64{r.Drive.Phi.Left, r.Drive.Phi.Right},
			Encoders: [2]int64{enc.Left, enc.Right},
			Command:  [2]float64{r.Cmd.Left, r.Cmd.Right},
		}
		for _, q := range r.Path {
			rv.Path = append(rv.Path, [3]float64{q.X, q.Y, q.Theta})
		}
		if st, err := r.Src.State(); err == nil {
			rv.RNG = st
		}
		s.Robots = append(s.Robots, rv)
	}
	return s
}
