package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"multisim.dev/internal/observerproto"
	"multisim.dev/internal/protocol"
)

// scene is the latest observed state, shared between the network reader and
// the render loop.
type scene struct {
	mu    sync.Mutex
	boot  observerproto.BootstrapResponse
	tick  uint64
	bots  []observerproto.RobotState
	paths map[int][]observerproto.Point
	scans map[int]*protocol.Scan
}

func newScene(boot observerproto.BootstrapResponse) *scene {
	return &scene{
		boot:  boot,
		tick:  boot.Tick,
		paths: map[int][]observerproto.Point{},
		scans: map[int]*protocol.Scan{},
	}
}

// apply folds one TICK into the scene. Paths and scans only ride on the ticks
// that produce them, so the last ones seen are kept until replaced.
func (s *scene) apply(msg observerproto.TickMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Tick < s.tick {
		// Simulation reset: drop trails from the previous episode.
		s.paths = map[int][]observerproto.Point{}
		s.scans = map[int]*protocol.Scan{}
	}
	s.tick = msg.Tick
	s.bots = msg.Robots
	for _, r := range msg.Robots {
		if r.Path != nil {
			s.paths[r.Index] = r.Path
		}
		if r.Scan != nil {
			s.scans[r.Index] = r.Scan
		}
	}
}

type frame struct {
	Tick   uint64
	Robots []observerproto.RobotState
	Paths  map[int][]observerproto.Point
	Scans  map[int]*protocol.Scan
}

func (s *scene) frame() frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := frame{
		Tick:   s.tick,
		Robots: append([]observerproto.RobotState(nil), s.bots...),
		Paths:  make(map[int][]observerproto.Point, len(s.paths)),
		Scans:  make(map[int]*protocol.Scan, len(s.scans)),
	}
	for k, v := range s.paths {
		f.Paths[k] = v
	}
	for k, v := range s.scans {
		f.Scans[k] = v
	}
	return f
}

func fetchBootstrap(ctx context.Context, base string) (observerproto.BootstrapResponse, error) {
	var out observerproto.BootstrapResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/admin/v1/observer/bootstrap", nil)
	if err != nil {
		return out, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("bootstrap: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("bootstrap: %w", err)
	}
	return out, nil
}

func observerURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/admin/v1/observer/ws"
	return u.String(), nil
}

// stream subscribes to the observer feed and applies every TICK to s until
// ctx is done or the connection fails.
func stream(ctx context.Context, base string, sub observerproto.SubscribeMsg, s *scene) error {
	wsURL, err := observerURL(base)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	sub.Type = observerproto.TypeSubscribe
	sub.ProtocolVersion = observerproto.Version
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var msg observerproto.TickMsg
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != observerproto.TypeTick {
			continue
		}
		s.apply(msg)
	}
}

// view maps arena metres to screen pixels. The arena origin sits at the
// window center with +y up.
type view struct {
	Scale  float64 // px per metre
	Width  int
	Height int
}

func newView(p protocol.WorldParams, scale float64, margin float64) view {
	return view{
		Scale:  scale,
		Width:  int(math.Ceil((p.ArenaWidth + 2*margin) * scale)),
		Height: int(math.Ceil((p.ArenaHeight + 2*margin) * scale)),
	}
}

func (v view) toScreen(x, y float64) (float32, float32) {
	return float32(float64(v.Width)/2 + x*v.Scale), float32(float64(v.Height)/2 - y*v.Scale)
}

// scanPoints returns the world-frame hit points of scan taken at pose.
// Out-of-range readings are skipped.
func scanPoints(pose observerproto.Transform, scan *protocol.Scan) []observerproto.Point {
	if scan == nil {
		return nil
	}
	out := make([]observerproto.Point, 0, len(scan.Ranges))
	for i, r := range scan.Ranges {
		if math.IsInf(r, 0) || math.IsNaN(r) || r < scan.RangeMin || r > scan.RangeMax {
			continue
		}
		a := pose.Theta + scan.AngleMin + float64(i)*scan.AngleIncrement
		out = append(out, observerproto.Point{X: pose.X + r*math.Cos(a), Y: pose.Y + r*math.Sin(a)})
	}
	return out
}

var palette = map[string]color.RGBA{
	"red":     {R: 0xe6, G: 0x39, B: 0x46, A: 0xff},
	"green":   {R: 0x2a, G: 0x9d, B: 0x8f, A: 0xff},
	"blue":    {R: 0x45, G: 0x7b, B: 0x9d, A: 0xff},
	"purple":  {R: 0x8e, G: 0x44, B: 0xad, A: 0xff},
	"cyan":    {R: 0x48, G: 0xca, B: 0xe4, A: 0xff},
	"magenta": {R: 0xd6, G: 0x33, B: 0x84, A: 0xff},
	"yellow":  {R: 0xe9, G: 0xc4, B: 0x6a, A: 0xff},
	"grey":    {R: 0x88, G: 0x88, B: 0x88, A: 0xff},
}

func colorOf(name string) color.RGBA {
	if c, ok := palette[strings.ToLower(name)]; ok {
		return c
	}
	return palette["grey"]
}
