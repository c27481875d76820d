package world

import (
	"context"
	"testing"

	"multisim.dev/internal/sim/control"
	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/lidar"
	"multisim.dev/internal/sim/maze"
	"multisim.dev/internal/sim/process"
)

func testConfig() WorldConfig {
	return WorldConfig{
		RunID:            "test-run",
		Seed:             1,
		NumRobots:        1,
		TickRateHz:       200,
		SensorEveryTicks: 40,
		PathEveryTicks:   100,
		Maze: maze.Params{
			ArenaXMin: 5, ArenaXMax: 5,
			ArenaYMin: 5, ArenaYMax: 5,
			MinCorridorWidth: 0.5,
			WallLength:       1.0,
			WallBreadth:      0.1,
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
}

func mazeConfig(robots int) WorldConfig {
	cfg := testConfig()
	cfg.NumRobots = robots
	cfg.Maze.ArenaXMax, cfg.Maze.ArenaYMax = 7, 7
	cfg.Maze.WallCount = 12
	return cfg
}

func newTestWorld(t *testing.T, cfg WorldConfig) *World {
	t.Helper()
	w, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func drive(left, right float64) []CommandEnvelope {
	return []CommandEnvelope{{Robot: 0, Cmd: process.WheelCommand{Left: left, Right: right}}}
}

type captureTickLogger struct{ entries []TickLogEntry }

func (c *captureTickLogger) WriteTick(e TickLogEntry) error {
	c.entries = append(c.entries, e)
	return nil
}

type captureAuditLogger struct{ entries []AuditEntry }

func (c *captureAuditLogger) WriteAudit(e AuditEntry) error {
	c.entries = append(c.entries, e)
	return nil
}
