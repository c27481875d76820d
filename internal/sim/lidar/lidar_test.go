package lidar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/rng"
)

func arena(w, h float64) geom.Rect { return geom.RectAround(geom.Point{}, w, h) }

func TestScan_WallNearFace(t *testing.T) {
	// Vertical wall of breadth 0.2 at the origin; scanner 2 m away facing it.
	env := Environment{
		Bounds: arena(10, 10),
		Walls:  []geom.Rect{geom.RectAround(geom.Point{}, 0.2, 1.0)},
	}
	pose := geom.Pose{X: 2 - SensorOffset, Theta: math.Pi}
	require.InDelta(t, 2.0, Origin(pose).X, 1e-12)

	s := New(Config{MinRange: 0.12, MaxRange: 3.5, Samples: 4})
	scan := s.Scan(pose, env, rng.ForRobot(1, 0))
	require.Len(t, scan.Ranges, 4)
	for i, r := range scan.Ranges {
		assert.InDelta(t, 1.9, r, 1e-6, "sample %d", i)
	}
}

func TestScan_OpenFieldReadsZero(t *testing.T) {
	env := Environment{Bounds: arena(20, 20)}
	s := New(Config{MinRange: 0.12, MaxRange: 3.5, AngleIncrement: geom.Deg2Rad(1), Samples: 360, Resolution: 0.01, Variance: 0.01})
	scan := s.Scan(geom.Pose{}, env, rng.ForRobot(1, 0))
	for i, r := range scan.Ranges {
		require.Zero(t, r, "sample %d", i)
	}
}

func TestScan_BoundaryAndMinRange(t *testing.T) {
	env := Environment{Bounds: arena(4, 4)}
	s := New(Config{MinRange: 0.5, MaxRange: 5, AngleIncrement: math.Pi, Samples: 2})

	// Facing +x from just short of the east boundary: too close ahead, far behind.
	pose := geom.Pose{X: 1.8 + SensorOffset}
	scan := s.Scan(pose, env, rng.ForRobot(1, 0))
	assert.Zero(t, scan.Ranges[0])
	assert.InDelta(t, 3.8, scan.Ranges[1], 1e-6)
}

func TestScan_Quantized(t *testing.T) {
	env := Environment{Bounds: arena(4, 4)}
	s := New(Config{MinRange: 0.1, MaxRange: 3.5, Samples: 1, Resolution: 0.05})
	pose := geom.Pose{X: 0.73 + SensorOffset}
	scan := s.Scan(pose, env, rng.ForRobot(1, 0))
	// True range 1.27 rounds to 1.25.
	assert.InDelta(t, 1.25, scan.Ranges[0], 1e-9)
}

func TestScan_NoiseDeterministic(t *testing.T) {
	env := Environment{Bounds: arena(4, 4)}
	cfg := Config{MinRange: 0.1, MaxRange: 3.5, AngleIncrement: geom.Deg2Rad(10), Samples: 36, Resolution: 0.001, Variance: 0.001}
	a := New(cfg).Scan(geom.Pose{}, env, rng.ForRobot(9, 1))
	b := New(cfg).Scan(geom.Pose{}, env, rng.ForRobot(9, 1))
	assert.Equal(t, a.Ranges, b.Ranges)
}

func TestCast_OrderIndependentMinimum(t *testing.T) {
	env := Environment{
		Bounds:  arena(10, 10),
		Walls:   []geom.Rect{geom.RectAround(geom.Point{X: 3}, 0.2, 2)},
		Circles: []geom.Circle{{Center: geom.Point{X: 2}, R: 0.25}},
	}
	r := Cast(geom.NewRay(geom.Point{}, 0), env)
	assert.InDelta(t, 1.75, r, 1e-9)

	env.Circles = nil
	assert.InDelta(t, 2.9, Cast(geom.NewRay(geom.Point{}, 0), env), 1e-6)
}
