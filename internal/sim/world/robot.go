package world

import (
	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/kinematics"
	"multisim.dev/internal/sim/lidar"
	"multisim.dev/internal/sim/process"
	"multisim.dev/internal/sim/rng"
)

var robotColors = []string{"red", "green", "blue", "purple", "cyan", "magenta", "yellow"}

// ColorFor returns the display color of robot i.
func ColorFor(i int) string { return robotColors[i%len(robotColors)] }

// Robot is one simulated differential-drive robot. It is owned by the world loop.
type Robot struct {
	Index int
	Color string

	Drive kinematics.DiffDrive
	Proc  *process.Simulator
	Src   *rng.Source

	// Cmd is the latest motor command; it persists until replaced.
	Cmd process.WheelCommand

	Path []geom.Pose

	Scan     *lidar.Scan
	ScanTick uint64
}

func (r *Robot) Pose() geom.Pose { return r.Drive.Pose }
