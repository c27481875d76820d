package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is the full dynamic state of a run at a tick boundary plus the
// parameters needed to rebuild the static maze from its seed.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed               int64 `json:"seed"`
	NumRobots          int   `json:"num_robots"`
	TickRate           int   `json:"tick_rate_hz"`
	SensorEveryTicks   int   `json:"sensor_every_ticks"`
	PathEveryTicks     int   `json:"path_every_ticks"`
	SnapshotEveryTicks int   `json:"snapshot_every_ticks,omitempty"`

	Maze    MazeParamsV1    `json:"maze"`
	Process ProcessParamsV1 `json:"process"`
	Control ControlParamsV1 `json:"control"`
	Lidar   LidarV1         `json:"lidar"`

	Obstacles       []CircleV1 `json:"obstacles,omitempty"`
	CollisionRadius float64    `json:"collision_radius"`

	ArenaWidth  float64  `json:"arena_width"`
	ArenaHeight float64  `json:"arena_height"`
	Walls       []WallV1 `json:"walls"`

	Robots []RobotV1 `json:"robots"`
}

type MazeParamsV1 struct {
	ArenaXMin        float64 `json:"arena_x_min"`
	ArenaXMax        float64 `json:"arena_x_max"`
	ArenaYMin        float64 `json:"arena_y_min"`
	ArenaYMax        float64 `json:"arena_y_max"`
	MinCorridorWidth float64 `json:"min_corridor_width"`
	WallLength       float64 `json:"wall_length"`
	WallBreadth      float64 `json:"wall_breadth"`
	WallCount        int     `json:"wall_count"`
	MaxAttempts      int     `json:"max_attempts"`
}

type ProcessParamsV1 struct {
	MotorCmdPerRadSec  float64 `json:"motor_cmd_per_rad_sec"`
	EncoderTicksPerRad float64 `json:"encoder_ticks_per_rad"`
	InputNoise         float64 `json:"input_noise"`
	SlipFraction       float64 `json:"slip_fraction"`
}

type ControlParamsV1 struct {
	WheelRadius float64 `json:"wheel_radius"`
	TrackWidth  float64 `json:"track_width"`
	MotorCmdMax float64 `json:"motor_cmd_max"`
}

type LidarV1 struct {
	MinRange       float64 `json:"min_range"`
	MaxRange       float64 `json:"max_range"`
	AngleIncrement float64 `json:"angle_increment"`
	Samples        int     `json:"samples"`
	Resolution     float64 `json:"resolution"`
	Variance       float64 `json:"variance"`
}

type CircleV1 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

type WallV1 struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Orientation int     `json:"orientation"`
	Length      float64 `json:"length"`
	Breadth     float64 `json:"breadth"`
}

type RobotV1 struct {
	Index int    `json:"index"`
	Color string `json:"color"`

	Pose     [3]float64   `json:"pose"` // x, y, theta
	Phi      [2]float64   `json:"phi"`
	Encoders [2]int64     `json:"encoders"`
	Command  [2]float64   `json:"command"`
	Path     [][3]float64 `json:"path,omitempty"`

	// RNG is the serialized per-robot generator state.
	RNG []byte `json:"rng"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadHeader returns only the JSON header line of a snapshot file.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; gob also carries it.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
