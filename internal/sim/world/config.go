package world

import (
	"multisim.dev/internal/sim/control"
	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/lidar"
	"multisim.dev/internal/sim/maze"
	"multisim.dev/internal/sim/process"
	"multisim.dev/internal/sim/tuning"
)

type WorldConfig struct {
	RunID      string
	Seed       int64
	NumRobots  int
	TickRateHz int

	SensorEveryTicks int
	PathEveryTicks   int

	// Operational parameters. These are included in snapshots for deterministic replay.
	SnapshotEveryTicks int

	Maze    maze.Params
	Process process.Params
	Control control.Params
	Lidar   lidar.Config

	Obstacles       []geom.Circle
	CollisionRadius float64
}

// ConfigFromTuning maps a validated tuning file onto a world config.
func ConfigFromTuning(t tuning.Tuning) WorldConfig {
	return WorldConfig{
		Seed:               t.Seed,
		NumRobots:          t.NumRobots,
		TickRateHz:         t.Rate,
		SensorEveryTicks:   t.SensorEveryTicks(),
		PathEveryTicks:     t.PathEveryTicks,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
		Maze:               t.MazeParams(),
		Process:            t.ProcessParams(),
		Control:            t.ControlParams(),
		Lidar:              t.LidarConfig(),
		Obstacles:          t.Circles(),
		CollisionRadius:    t.CollisionRadius,
	}
}

func (c *WorldConfig) applyDefaults() {
	if c.NumRobots <= 0 {
		c.NumRobots = 1
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 200
	}
	if c.SensorEveryTicks <= 0 {
		c.SensorEveryTicks = 1
	}
	if c.PathEveryTicks <= 0 {
		c.PathEveryTicks = 100
	}
}

func (c WorldConfig) dt() float64 { return 1 / float64(c.TickRateHz) }

// every reports whether tick falls on a sub-rate of n ticks, counting from tick 1.
func every(tick uint64, n int) bool {
	return n > 0 && tick > 0 && (tick-1)%uint64(n) == 0
}
