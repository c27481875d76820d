package tuning

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"multisim.dev/internal/sim/control"
	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/lidar"
	"multisim.dev/internal/sim/maze"
	"multisim.dev/internal/sim/process"
)

// Unset marks a required physical parameter that the config file did not provide.
const Unset = -1.0

type Tuning struct {
	Seed      int64 `yaml:"seed"`
	MaxSeed   int64 `yaml:"max_seed"`
	NumRobots int   `yaml:"num_robots"`

	// Rate is the tick rate [Hz].
	Rate               int     `yaml:"rate"`
	SensorRateHz       float64 `yaml:"sensor_rate_hz"`
	PathEveryTicks     int     `yaml:"path_every_ticks"`
	SnapshotEveryTicks int     `yaml:"snapshot_every_ticks"`

	ArenaXMin        float64 `yaml:"arena_x_min"`
	ArenaXMax        float64 `yaml:"arena_x_max"`
	ArenaYMin        float64 `yaml:"arena_y_min"`
	ArenaYMax        float64 `yaml:"arena_y_max"`
	MinCorridorWidth float64 `yaml:"min_corridor_width"`
	WallBreadth      float64 `yaml:"wall_breadth"`
	WallLength       float64 `yaml:"wall_length"`
	WallCount        int     `yaml:"wall_count"`
	MaxWallAttempts  int     `yaml:"max_wall_attempts"`

	WheelRadius        float64 `yaml:"wheel_radius"`
	TrackWidth         float64 `yaml:"track_width"`
	EncoderTicksPerRad float64 `yaml:"encoder_ticks_per_rad"`
	MotorCmdPerRadSec  float64 `yaml:"motor_cmd_per_rad_sec"`
	MotorCmdMax        float64 `yaml:"motor_cmd_max"`
	InputNoise         float64 `yaml:"input_noise"`
	SlipFraction       float64 `yaml:"slip_fraction"`
	CollisionRadius    float64 `yaml:"collision_radius"`

	LidarVariance       float64 `yaml:"lidar_variance"`
	LidarMinRange       float64 `yaml:"lidar_min_range"`
	LidarMaxRange       float64 `yaml:"lidar_max_range"`
	LidarAngleIncrement float64 `yaml:"lidar_angle_increment"` // degrees
	LidarNumSamples     float64 `yaml:"lidar_num_samples"`
	LidarResolution     float64 `yaml:"lidar_resolution"`

	Obstacles []Obstacle `yaml:"obstacles"`
}

// Obstacle is a round obstacle seen only by the range scanner.
type Obstacle struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	R float64 `yaml:"r"`
}

// Defaults returns operational defaults with every required physical
// parameter left Unset and the seed left at 0.
func Defaults() Tuning {
	return Tuning{
		MaxSeed:            100,
		NumRobots:          1,
		Rate:               200,
		SensorRateHz:       5,
		PathEveryTicks:     100,
		SnapshotEveryTicks: 2000,
		MaxWallAttempts:    10000,

		WheelRadius:         Unset,
		TrackWidth:          Unset,
		EncoderTicksPerRad:  Unset,
		MotorCmdPerRadSec:   Unset,
		MotorCmdMax:         Unset,
		InputNoise:          Unset,
		SlipFraction:        Unset,
		CollisionRadius:     Unset,
		LidarVariance:       Unset,
		LidarMinRange:       Unset,
		LidarMaxRange:       Unset,
		LidarAngleIncrement: Unset,
		LidarNumSamples:     Unset,
		LidarResolution:     Unset,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

type param struct {
	key string
	v   float64
}

func (t Tuning) required() []param {
	return []param{
		{"wheel_radius", t.WheelRadius},
		{"track_width", t.TrackWidth},
		{"encoder_ticks_per_rad", t.EncoderTicksPerRad},
		{"motor_cmd_per_rad_sec", t.MotorCmdPerRadSec},
		{"motor_cmd_max", t.MotorCmdMax},
		{"input_noise", t.InputNoise},
		{"slip_fraction", t.SlipFraction},
		{"collision_radius", t.CollisionRadius},
		{"lidar_variance", t.LidarVariance},
		{"lidar_min_range", t.LidarMinRange},
		{"lidar_max_range", t.LidarMaxRange},
		{"lidar_angle_increment", t.LidarAngleIncrement},
		{"lidar_num_samples", t.LidarNumSamples},
		{"lidar_resolution", t.LidarResolution},
	}
}

func (t Tuning) Validate() error {
	for _, p := range t.required() {
		if p.v == Unset {
			return fmt.Errorf("tuning.yaml: missing required parameter %s", p.key)
		}
	}

	positive := []param{
		{"wheel_radius", t.WheelRadius},
		{"track_width", t.TrackWidth},
		{"encoder_ticks_per_rad", t.EncoderTicksPerRad},
		{"motor_cmd_per_rad_sec", t.MotorCmdPerRadSec},
		{"motor_cmd_max", t.MotorCmdMax},
		{"lidar_angle_increment", t.LidarAngleIncrement},
		{"lidar_num_samples", t.LidarNumSamples},
		{"min_corridor_width", t.MinCorridorWidth},
		{"arena_x_min", t.ArenaXMin},
		{"arena_y_min", t.ArenaYMin},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("tuning.yaml: %s must be > 0", p.key)
		}
	}
	nonNegative := []param{
		{"input_noise", t.InputNoise},
		{"slip_fraction", t.SlipFraction},
		{"collision_radius", t.CollisionRadius},
		{"lidar_variance", t.LidarVariance},
		{"lidar_min_range", t.LidarMinRange},
		{"lidar_max_range", t.LidarMaxRange},
		{"lidar_resolution", t.LidarResolution},
	}
	for _, p := range nonNegative {
		if p.v < 0 {
			return fmt.Errorf("tuning.yaml: %s must be >= 0", p.key)
		}
	}
	if t.LidarMaxRange <= t.LidarMinRange {
		return fmt.Errorf("tuning.yaml: lidar_max_range must be > lidar_min_range")
	}
	if t.LidarNumSamples != math.Trunc(t.LidarNumSamples) {
		return fmt.Errorf("tuning.yaml: lidar_num_samples must be an integer")
	}

	if t.Seed == 0 {
		return fmt.Errorf("tuning.yaml: missing seed")
	}
	if t.Seed < 0 || t.Seed > t.MaxSeed {
		return fmt.Errorf("tuning.yaml: seed %d must be in [1, %d]", t.Seed, t.MaxSeed)
	}
	if t.NumRobots < 1 {
		return fmt.Errorf("tuning.yaml: num_robots must be >= 1")
	}
	if t.Rate <= 0 {
		return fmt.Errorf("tuning.yaml: rate must be > 0")
	}
	if t.SensorRateHz <= 0 || t.SensorRateHz > float64(t.Rate) {
		return fmt.Errorf("tuning.yaml: sensor_rate_hz must be in (0, rate]")
	}
	if t.PathEveryTicks < 1 {
		return fmt.Errorf("tuning.yaml: path_every_ticks must be >= 1")
	}
	if t.SnapshotEveryTicks < 0 {
		return fmt.Errorf("tuning.yaml: snapshot_every_ticks must be >= 0")
	}
	if t.ArenaXMax < t.ArenaXMin || t.ArenaYMax < t.ArenaYMin {
		return fmt.Errorf("tuning.yaml: arena max bounds must be >= min bounds")
	}
	if t.WallCount < 0 {
		return fmt.Errorf("tuning.yaml: wall_count must be >= 0")
	}
	if t.WallCount > 0 && (t.WallLength <= 0 || t.WallBreadth <= 0) {
		return fmt.Errorf("tuning.yaml: wall_length and wall_breadth must be > 0")
	}
	for i, o := range t.Obstacles {
		if o.R <= 0 {
			return fmt.Errorf("tuning.yaml: obstacles[%d].r must be > 0", i)
		}
	}
	return nil
}

// DT is the tick period [s].
func (t Tuning) DT() float64 { return 1 / float64(t.Rate) }

// SensorEveryTicks is the scan sub-rate in ticks.
func (t Tuning) SensorEveryTicks() int {
	n := int(math.Round(float64(t.Rate) / t.SensorRateHz))
	if n < 1 {
		return 1
	}
	return n
}

func (t Tuning) MazeParams() maze.Params {
	return maze.Params{
		ArenaXMin:        t.ArenaXMin,
		ArenaXMax:        t.ArenaXMax,
		ArenaYMin:        t.ArenaYMin,
		ArenaYMax:        t.ArenaYMax,
		MinCorridorWidth: t.MinCorridorWidth,
		WallLength:       t.WallLength,
		WallBreadth:      t.WallBreadth,
		WallCount:        t.WallCount,
		MaxAttempts:      t.MaxWallAttempts,
	}
}

func (t Tuning) ProcessParams() process.Params {
	return process.Params{
		MotorCmdPerRadSec:  t.MotorCmdPerRadSec,
		EncoderTicksPerRad: t.EncoderTicksPerRad,
		InputNoise:         t.InputNoise,
		SlipFraction:       t.SlipFraction,
	}
}

func (t Tuning) ControlParams() control.Params {
	return control.Params{
		WheelRadius:        t.WheelRadius,
		TrackWidth:         t.TrackWidth,
		MotorCmdMax:        t.MotorCmdMax,
		MotorCmdPerRadSec:  t.MotorCmdPerRadSec,
		EncoderTicksPerRad: t.EncoderTicksPerRad,
	}
}

func (t Tuning) LidarConfig() lidar.Config {
	return lidar.Config{
		MinRange:       t.LidarMinRange,
		MaxRange:       t.LidarMaxRange,
		AngleIncrement: geom.Deg2Rad(t.LidarAngleIncrement),
		Samples:        int(t.LidarNumSamples),
		Resolution:     t.LidarResolution,
		Variance:       t.LidarVariance,
	}
}

func (t Tuning) Circles() []geom.Circle {
	out := make([]geom.Circle, 0, len(t.Obstacles))
	for _, o := range t.Obstacles {
		out = append(out, geom.Circle{Center: geom.Point{X: o.X, Y: o.Y}, R: o.R})
	}
	return out
}
