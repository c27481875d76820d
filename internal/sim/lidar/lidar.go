// Package lidar simulates a rotating single-beam range scanner by casting rays
// against the maze walls, optional round obstacles and the arena boundary.
package lidar

import (
	"fmt"
	"math"

	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/rng"
)

// SensorOffset is the distance from the robot center back to the scanner [m].
const SensorOffset = 0.032

type Config struct {
	MinRange float64
	MaxRange float64
	// AngleIncrement is the angle between consecutive samples [rad].
	AngleIncrement float64
	Samples        int
	// Resolution quantizes readings. Zero disables quantization.
	Resolution float64
	Variance   float64
}

func (c Config) Validate() error {
	if c.MinRange < 0 {
		return fmt.Errorf("lidar: min_range must be >= 0")
	}
	if c.MaxRange <= c.MinRange {
		return fmt.Errorf("lidar: max_range must be > min_range")
	}
	if c.Samples <= 0 {
		return fmt.Errorf("lidar: samples must be > 0")
	}
	if c.Resolution < 0 || c.Variance < 0 {
		return fmt.Errorf("lidar: resolution and variance must be >= 0")
	}
	return nil
}

// Environment is the static geometry a scan is cast against.
type Environment struct {
	Bounds  geom.Rect
	Walls   []geom.Rect
	Circles []geom.Circle
}

// Scan is one full sweep. A zero range means nothing was detected in [RangeMin, RangeMax).
type Scan struct {
	AngleMin       float64   `json:"angle_min"`
	AngleIncrement float64   `json:"angle_increment"`
	RangeMin       float64   `json:"range_min"`
	RangeMax       float64   `json:"range_max"`
	Ranges         []float64 `json:"ranges"`
}

type Sensor struct {
	cfg Config
}

func New(cfg Config) *Sensor { return &Sensor{cfg: cfg} }

func (s *Sensor) Config() Config { return s.cfg }

// Origin returns the scanner position for a robot at pose.
func Origin(pose geom.Pose) geom.Point {
	return pose.Point().Add(geom.Heading(pose.Theta).Scale(-SensorOffset))
}

// Scan sweeps from the robot heading counterclockwise. Noise is drawn from src
// only for readings that fall inside the valid range.
func (s *Sensor) Scan(pose geom.Pose, env Environment, src *rng.Source) Scan {
	out := Scan{
		AngleIncrement: s.cfg.AngleIncrement,
		RangeMin:       s.cfg.MinRange,
		RangeMax:       s.cfg.MaxRange,
		Ranges:         make([]float64, s.cfg.Samples),
	}
	origin := Origin(pose)
	for i := 0; i < s.cfg.Samples; i++ {
		ray := geom.NewRay(origin, float64(i)*s.cfg.AngleIncrement+pose.Theta)
		r := Cast(ray, env)
		if r >= s.cfg.MaxRange || r < s.cfg.MinRange {
			continue
		}
		out.Ranges[i] = s.quantize(r + src.Gaussian(s.cfg.Variance))
	}
	return out
}

func (s *Sensor) quantize(r float64) float64 {
	if s.cfg.Resolution <= 0 {
		return r
	}
	return s.cfg.Resolution * math.Round(r/s.cfg.Resolution)
}

// Cast returns the true distance along ray to the nearest surface in env.
// Walls are tested first, then circles, then the boundary. A ray that escapes
// everything returns +Inf.
func Cast(ray geom.Ray, env Environment) float64 {
	best := math.Inf(1)
	for _, w := range env.Walls {
		if t, ok := geom.RayRect(ray, w); ok && t < best {
			best = t
		}
	}
	for _, c := range env.Circles {
		if t, ok := geom.RayCircle(ray, c); ok && t < best {
			best = t
		}
	}
	if t, ok := geom.RayRect(ray, env.Bounds); ok && t < best {
		best = t
	}
	return best
}
