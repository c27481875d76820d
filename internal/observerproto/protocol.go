package observerproto

import "multisim.dev/internal/protocol"

// Version is the observer protocol version (separate from the robot WS protocol).
const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeTick      = "TICK"
)

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	IncludePaths    bool   `json:"include_paths"`
	IncludeScans    bool   `json:"include_scans"`

	// PathLimit caps the number of trailing path points per robot. 0 means all.
	PathLimit int `json:"path_limit,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string               `json:"protocol_version"`
	RunID           string               `json:"run_id,omitempty"`
	Tick            uint64               `json:"tick"`
	WorldParams     protocol.WorldParams `json:"world_params"`

	Walls     []Marker    `json:"walls"`
	Boundary  []Marker    `json:"boundary"`
	Obstacles []Obstacle  `json:"obstacles,omitempty"`
	Spawns    []Point     `json:"spawns"`
	Robots    []RobotInfo `json:"robots"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Marker is a box: Length along its local x axis after rotating by Yaw.
type Marker struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Yaw     float64 `json:"yaw"`
	Length  float64 `json:"length"`
	Breadth float64 `json:"breadth"`
	Height  float64 `json:"height"`
	Color   string  `json:"color"`
}

type Obstacle struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

type RobotInfo struct {
	Index int    `json:"index"`
	Color string `json:"color"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Robots []RobotState `json:"robots"`
	Audits []AuditEntry `json:"audits,omitempty"`
}

// Transform is a planar pose with its yaw quaternion.
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
	QZ    float64 `json:"qz"`
	QW    float64 `json:"qw"`
}

type RobotState struct {
	Index     int               `json:"index"`
	Color     string            `json:"color"`
	Connected bool              `json:"connected"`
	Pose      Transform         `json:"pose"`
	Encoders  protocol.Encoders `json:"encoders"`
	Path      []Point           `json:"path,omitempty"`
	Scan      *protocol.Scan    `json:"scan,omitempty"`
}

type AuditEntry struct {
	Tick   uint64    `json:"tick"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Robot  int       `json:"robot"`
	From   Transform `json:"from"`
	To     Transform `json:"to"`
}
