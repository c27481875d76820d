package protocol

import "fmt"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Robot           int    `json:"robot"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	RunID           string      `json:"run_id,omitempty"`
	Robot           int         `json:"robot"`
	Color           string      `json:"color"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	Seed             int64   `json:"seed"`
	TickRateHz       int     `json:"tick_rate_hz"`
	NumRobots        int     `json:"num_robots"`
	SensorEveryTicks int     `json:"sensor_every_ticks"`
	PathEveryTicks   int     `json:"path_every_ticks"`
	ArenaWidth       float64 `json:"arena_width"`
	ArenaHeight      float64 `json:"arena_height"`

	WheelRadius        float64 `json:"wheel_radius"`
	TrackWidth         float64 `json:"track_width"`
	EncoderTicksPerRad float64 `json:"encoder_ticks_per_rad"`
	MotorCmdPerRadSec  float64 `json:"motor_cmd_per_rad_sec"`
	MotorCmdMax        float64 `json:"motor_cmd_max"`
	CollisionRadius    float64 `json:"collision_radius"`
}

// CMD (client -> server). Exactly one of Twist or Wheels is set.
type CmdMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Robot           int       `json:"robot"`
	Twist           *Twist    `json:"twist,omitempty"`
	Wheels          *WheelCmd `json:"wheels,omitempty"`
}

type Twist struct {
	Omega float64 `json:"omega"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
}

// WheelCmd is a raw motor command pair.
type WheelCmd struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

func (m CmdMsg) Validate() error {
	if (m.Twist == nil) == (m.Wheels == nil) {
		return fmt.Errorf("cmd must carry exactly one of twist or wheels")
	}
	if m.Twist != nil && m.Twist.VY != 0 {
		return fmt.Errorf("twist vy must be 0 for a differential drive")
	}
	return nil
}

// SENSOR (server -> client), once per tick.
type SensorMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Tick            uint64   `json:"tick"`
	Robot           int      `json:"robot"`
	Stamp           float64  `json:"stamp"` // simulated seconds
	Encoders        Encoders `json:"encoders"`
	Scan            *Scan    `json:"scan,omitempty"`
}

type Encoders struct {
	Left  int64 `json:"left"`
	Right int64 `json:"right"`
}

type Scan struct {
	AngleMin       float64   `json:"angle_min"`
	AngleIncrement float64   `json:"angle_increment"`
	RangeMin       float64   `json:"range_min"`
	RangeMax       float64   `json:"range_max"`
	Ranges         []float64 `json:"ranges"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
