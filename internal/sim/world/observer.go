package world

import (
	"encoding/json"

	"multisim.dev/internal/observerproto"
	"multisim.dev/internal/protocol"
	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/lidar"
	"multisim.dev/internal/sim/maze"
)

// Marker colors.
const (
	WallColor     = "red"
	BoundaryColor = "red"
)

type ObserverJoinRequest struct {
	SessionID string
	Out       chan []byte

	IncludePaths bool
	IncludeScans bool
	PathLimit    int
}

type ObserverSubscribeRequest struct {
	SessionID    string
	IncludePaths bool
	IncludeScans bool
	PathLimit    int
}

type observerCfg struct {
	includePaths bool
	includeScans bool
	pathLimit    int
}

type observerClient struct {
	id  string
	out chan []byte
	cfg observerCfg
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest           { return w.observerJoin }
func (w *World) ObserverSubscribe() chan<- ObserverSubscribeRequest { return w.observerSub }
func (w *World) ObserverLeave() chan<- string                       { return w.observerLeave }

func clampPathLimit(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		return
	}
	// Replace existing session id if any.
	if old := w.observers[req.SessionID]; old != nil {
		close(old.out)
	}
	w.observers[req.SessionID] = &observerClient{
		id:  req.SessionID,
		out: req.Out,
		cfg: observerCfg{
			includePaths: req.IncludePaths,
			includeScans: req.IncludeScans,
			pathLimit:    clampPathLimit(req.PathLimit),
		},
	}
}

func (w *World) handleObserverSubscribe(req ObserverSubscribeRequest) {
	c := w.observers[req.SessionID]
	if c == nil {
		return
	}
	c.cfg.includePaths = req.IncludePaths
	c.cfg.includeScans = req.IncludeScans
	c.cfg.pathLimit = clampPathLimit(req.PathLimit)
}

func (w *World) handleObserverLeave(sessionID string) {
	c := w.observers[sessionID]
	if c == nil {
		return
	}
	delete(w.observers, sessionID)
	close(c.out)
}

func (w *World) stepObservers(nowTick uint64, scanned bool) {
	if len(w.observers) == 0 {
		return
	}
	audits := make([]observerproto.AuditEntry, 0, len(w.auditsThisTick))
	for _, a := range w.auditsThisTick {
		audits = append(audits, observerproto.AuditEntry{
			Tick:   a.Tick,
			Actor:  a.Actor,
			Action: a.Action,
			Robot:  a.Robot,
			From:   transformOf(a.From),
			To:     transformOf(a.To),
		})
	}
	for _, c := range w.observers {
		msg := observerproto.TickMsg{
			Type:            observerproto.TypeTick,
			ProtocolVersion: observerproto.Version,
			Tick:            nowTick,
			Robots:          make([]observerproto.RobotState, 0, len(w.robots)),
			Audits:          audits,
		}
		for _, r := range w.robots {
			enc := r.Proc.Encoders()
			st := observerproto.RobotState{
				Index:     r.Index,
				Color:     r.Color,
				Connected: w.clients[r.Index] != nil,
				Pose:      transformOf(r.Drive.Pose),
				Encoders:  protocol.Encoders{Left: enc.Left, Right: enc.Right},
			}
			if c.cfg.includePaths {
				st.Path = pathPoints(r.Path, c.cfg.pathLimit)
			}
			if c.cfg.includeScans && scanned && r.Scan != nil {
				st.Scan = scanMsg(r.Scan)
			}
			msg.Robots = append(msg.Robots, st)
		}
		b, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		sendLatest(c.out, b)
	}
}

// ObserverBootstrap describes the static scene. Walls, spawns and colors never
// change after New, so this is safe to call from any goroutine.
func (w *World) ObserverBootstrap() observerproto.BootstrapResponse {
	resp := observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		RunID:           w.cfg.RunID,
		Tick:            w.tick.Load(),
		WorldParams:     w.Params(),
	}
	for _, wl := range w.maze.Walls {
		resp.Walls = append(resp.Walls, markerOf(wl.Marker(), WallColor))
	}
	for _, m := range w.maze.Arena.BoundaryMarkers(w.cfg.Maze.WallBreadth) {
		resp.Boundary = append(resp.Boundary, markerOf(m, BoundaryColor))
	}
	for _, c := range w.cfg.Obstacles {
		resp.Obstacles = append(resp.Obstacles, observerproto.Obstacle{X: c.Center.X, Y: c.Center.Y, R: c.R})
	}
	resp.Spawns = make([]observerproto.Point, 0, len(w.maze.Spawns))
	for i := range w.maze.Spawns {
		p := w.maze.SpawnPoint(i)
		resp.Spawns = append(resp.Spawns, observerproto.Point{X: p.X, Y: p.Y})
	}
	for _, r := range w.robots {
		resp.Robots = append(resp.Robots, observerproto.RobotInfo{Index: r.Index, Color: r.Color})
	}
	return resp
}

func transformOf(p geom.Pose) observerproto.Transform {
	qz, qw := p.Quaternion()
	return observerproto.Transform{X: p.X, Y: p.Y, Theta: p.Theta, QZ: qz, QW: qw}
}

func markerOf(m maze.Marker, color string) observerproto.Marker {
	return observerproto.Marker{
		X:       m.Center.X,
		Y:       m.Center.Y,
		Yaw:     m.Yaw,
		Length:  m.Length,
		Breadth: m.Breadth,
		Height:  m.Height,
		Color:   color,
	}
}

func pathPoints(path []geom.Pose, limit int) []observerproto.Point {
	if limit > 0 && len(path) > limit {
		path = path[len(path)-limit:]
	}
	out := make([]observerproto.Point, len(path))
	for i, p := range path {
		out[i] = observerproto.Point{X: p.X, Y: p.Y}
	}
	return out
}

func scanMsg(s *lidar.Scan) *protocol.Scan {
	return &protocol.Scan{
		AngleMin:       s.AngleMin,
		AngleIncrement: s.AngleIncrement,
		RangeMin:       s.RangeMin,
		RangeMax:       s.RangeMax,
		Ranges:         append([]float64(nil), s.Ranges...),
	}
}
