package world

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"multisim.dev/internal/persistence/snapshot"
	"multisim.dev/internal/protocol"
	"multisim.dev/internal/sim/control"
	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/kinematics"
	"multisim.dev/internal/sim/lidar"
	"multisim.dev/internal/sim/maze"
	"multisim.dev/internal/sim/process"
	"multisim.dev/internal/sim/rng"
)

// ErrBadRobot is returned for a robot index outside [0, NumRobots).
var ErrBadRobot = errors.New("world: no such robot")

// CommandEnvelope carries the latest motor command for one robot.
type CommandEnvelope struct {
	Robot int                  `json:"robot"`
	Cmd   process.WheelCommand `json:"cmd"`
}

// Control operation kinds.
const (
	ControlReset    = "RESET"
	ControlTeleport = "TELEPORT"
)

// ControlOp is a reset or teleport. Both bypass the process model.
type ControlOp struct {
	Kind  string    `json:"kind"`
	Actor string    `json:"actor,omitempty"`
	Robot int       `json:"robot"`
	Pose  geom.Pose `json:"pose"`
}

type AttachRequest struct {
	Robot      int
	SessionID  string
	ClientName string
	Out        chan []byte
	Resp       chan AttachResponse
}

type AttachResponse struct {
	Welcome protocol.WelcomeMsg
	// Code is a protocol error code; empty on success.
	Code    string
	Message string
}

type DetachRequest struct {
	Robot     int
	SessionID string
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg WorldConfig

	tick atomic.Uint64

	maze   *maze.Maze
	env    lidar.Environment
	sensor *lidar.Sensor
	ctrl   *control.Controller

	robots  []*Robot
	clients map[int]*clientState

	inbox   chan CommandEnvelope
	attach  chan AttachRequest
	detach  chan DetachRequest
	control chan controlReq
	admin   chan adminSnapshotReq
	stop    chan struct{}

	observerJoin  chan ObserverJoinRequest
	observerSub   chan ObserverSubscribeRequest
	observerLeave chan string
	observers     map[string]*observerClient

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil). Snapshot writing should be off-thread.
	snapshotSink chan<- snapshot.SnapshotV1

	auditsThisTick []AuditEntry

	scansTotal    uint64
	commandsTotal uint64
	resetTotal    uint64
	teleportTotal uint64

	metrics atomic.Value
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick     uint64            `json:"tick"`
	Commands []CommandEnvelope `json:"commands,omitempty"`
	Controls []ControlOp       `json:"controls,omitempty"`
	Digest   string            `json:"digest"`
}

type AuditEntry struct {
	Tick   uint64    `json:"tick"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"` // RESET or TELEPORT
	Robot  int       `json:"robot"`
	From   geom.Pose `json:"from"`
	To     geom.Pose `json:"to"`
	Reason string    `json:"reason,omitempty"`
}

type clientState struct {
	SessionID string
	Name      string
	Out       chan []byte
}

// New generates the maze for cfg.Seed and places the robots. Generation is
// the only step that may take noticeable time; ctx aborts it.
func New(ctx context.Context, cfg WorldConfig) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.Process.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Control.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Lidar.Validate(); err != nil {
		return nil, err
	}

	mazeSrc := rng.New(cfg.Seed, rng.StreamMaze)
	m, err := maze.Generate(ctx, cfg.Maze, mazeSrc)
	if err != nil {
		return nil, err
	}

	w := &World{
		cfg:    cfg,
		maze:   m,
		sensor: lidar.New(cfg.Lidar),
		ctrl:   control.NewController(cfg.Control),
		env: lidar.Environment{
			Bounds:  m.Arena.Bounds(),
			Walls:   maze.Rects(m.Walls),
			Circles: append([]geom.Circle(nil), cfg.Obstacles...),
		},
		clients:       map[int]*clientState{},
		inbox:         make(chan CommandEnvelope, 1024),
		attach:        make(chan AttachRequest, 64),
		detach:        make(chan DetachRequest, 64),
		control:       make(chan controlReq, 64),
		admin:         make(chan adminSnapshotReq, 16),
		stop:          make(chan struct{}),
		observerJoin:  make(chan ObserverJoinRequest, 16),
		observerSub:   make(chan ObserverSubscribeRequest, 16),
		observerLeave: make(chan string, 16),
		observers:     map[string]*observerClient{},
	}

	starts, err := placeRobots(m, cfg.NumRobots, mazeSrc)
	if err != nil {
		return nil, err
	}
	for i := 0; i < cfg.NumRobots; i++ {
		src := rng.ForRobot(cfg.Seed, i)
		drive := kinematics.New(cfg.Control.WheelRadius, cfg.Control.TrackWidth)
		drive.Pose = starts[i]
		w.robots = append(w.robots, &Robot{
			Index: i,
			Color: ColorFor(i),
			Drive: drive,
			Proc:  process.New(cfg.Process, src),
			Src:   src,
		})
	}
	w.metrics.Store(WorldMetrics{Robots: len(w.robots)})
	return w, nil
}

// placeRobots puts robot 0 at the origin and every other robot on a distinct
// random spawn cell with a random heading.
func placeRobots(m *maze.Maze, n int, src *rng.Source) ([]geom.Pose, error) {
	out := make([]geom.Pose, n)
	if n <= 1 {
		return out, nil
	}
	if n-1 > len(m.Spawns) {
		return nil, fmt.Errorf("world: %d robots need %d spawn cells, maze has %d", n, n-1, len(m.Spawns))
	}
	idx := make([]int, len(m.Spawns))
	for i := range idx {
		idx[i] = i
	}
	for i := 1; i < n; i++ {
		// Partial Fisher-Yates keeps the picks distinct.
		k := i - 1
		j := k + src.IntN(len(idx)-k)
		idx[k], idx[j] = idx[j], idx[k]
		p := m.SpawnPoint(idx[k])
		out[i] = geom.Pose{X: p.X, Y: p.Y, Theta: src.Uniform(-math.Pi, math.Pi)}
	}
	return out, nil
}

func (w *World) Config() WorldConfig {
	cfg := w.cfg
	cfg.Obstacles = append([]geom.Circle(nil), w.cfg.Obstacles...)
	return cfg
}

// Maze returns the generated maze. It never changes after New.
func (w *World) Maze() *maze.Maze { return w.maze }

func (w *World) NumRobots() int { return len(w.robots) }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) Inbox() chan<- CommandEnvelope { return w.inbox }
func (w *World) Attach() chan<- AttachRequest  { return w.attach }
func (w *World) Detach() chan<- DetachRequest  { return w.detach }

func (w *World) SetTickLogger(l TickLogger)   { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger) { w.auditLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) {
	w.snapshotSink = ch
}

// WheelCommand converts a body twist into the motor command the robot's
// controller would send.
func (w *World) WheelCommand(t kinematics.Twist) (process.WheelCommand, error) {
	return w.ctrl.WheelCommand(t)
}

func (w *World) validRobot(i int) bool { return i >= 0 && i < len(w.robots) }

// Params describes the run for clients.
func (w *World) Params() protocol.WorldParams {
	return protocol.WorldParams{
		Seed:               w.cfg.Seed,
		TickRateHz:         w.cfg.TickRateHz,
		NumRobots:          len(w.robots),
		SensorEveryTicks:   w.cfg.SensorEveryTicks,
		PathEveryTicks:     w.cfg.PathEveryTicks,
		ArenaWidth:         w.maze.Arena.Width,
		ArenaHeight:        w.maze.Arena.Height,
		WheelRadius:        w.cfg.Control.WheelRadius,
		TrackWidth:         w.cfg.Control.TrackWidth,
		EncoderTicksPerRad: w.cfg.Process.EncoderTicksPerRad,
		MotorCmdPerRadSec:  w.cfg.Process.MotorCmdPerRadSec,
		MotorCmdMax:        w.cfg.Control.MotorCmdMax,
		CollisionRadius:    w.cfg.CollisionRadius,
	}
}
