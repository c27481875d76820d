package main

import (
	"encoding/json"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"multisim.dev/internal/protocol"
	"multisim.dev/internal/sim/control"
	"multisim.dev/internal/sim/process"
)

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name    = flag.String("name", "bot", "client name")
		robot   = flag.Int("robot", 0, "robot index to drive")
		pattern = flag.String("pattern", "circle", "drive pattern: straight, circle, spin, zigzag, stop")
		speed   = flag.Float64("speed", 0.1, "forward speed [m/s]")
		turn    = flag.Float64("turn", 0.5, "turn rate [rad/s]")
		period  = flag.Duration("period", 2*time.Second, "zigzag half period")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Robot:           *robot,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	var (
		tracker  *control.JointTracker
		rate     int
		lastSent protocol.Twist
		sent     bool
	)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			rate = w.WorldParams.TickRateHz
			tracker = control.NewJointTracker(w.WorldParams.EncoderTicksPerRad)
			logger.Printf("WELCOME session=%s robot=%d color=%s tick_rate=%d seed=%d",
				w.SessionID, w.Robot, w.Color, w.WorldParams.TickRateHz, w.WorldParams.Seed)

		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err == nil {
				logger.Printf("ERROR %s: %s", e.Code, e.Message)
			}

		case protocol.TypeSensor:
			if tracker == nil {
				continue
			}
			var s protocol.SensorMsg
			if err := json.Unmarshal(msg, &s); err != nil {
				continue
			}
			stamp := time.Duration(s.Stamp * float64(time.Second))
			js := tracker.Update(process.Encoders{Left: s.Encoders.Left, Right: s.Encoders.Right}, stamp)
			if rate > 0 && s.Tick%uint64(rate) == 0 {
				logger.Printf("tick=%d joints pos=(%.3f, %.3f) vel=(%.3f, %.3f)",
					s.Tick, js.Position.Left, js.Position.Right, js.Velocity.Left, js.Velocity.Right)
			}
			if s.Scan != nil {
				if r, ok := minRange(s.Scan.Ranges); ok {
					logger.Printf("tick=%d scan min=%.2f m", s.Tick, r)
				}
			}

			tw := twistFor(*pattern, stamp, *speed, *turn, *period)
			if sent && tw == lastSent {
				continue
			}
			cmd := protocol.CmdMsg{
				Type:            protocol.TypeCmd,
				ProtocolVersion: protocol.Version,
				Robot:           *robot,
				Twist:           &tw,
			}
			if err := conn.WriteJSON(cmd); err != nil {
				return
			}
			lastSent, sent = tw, true
		}
	}
}

// twistFor returns the commanded twist at elapsed simulation time t.
func twistFor(pattern string, t time.Duration, speed, turn float64, period time.Duration) protocol.Twist {
	switch pattern {
	case "straight":
		return protocol.Twist{VX: speed}
	case "spin":
		return protocol.Twist{Omega: turn}
	case "zigzag":
		if period <= 0 || (t/period)%2 == 0 {
			return protocol.Twist{VX: speed, Omega: turn}
		}
		return protocol.Twist{VX: speed, Omega: -turn}
	case "stop":
		return protocol.Twist{}
	default:
		return protocol.Twist{VX: speed, Omega: turn}
	}
}

// minRange ignores zero readings, which mean no return.
func minRange(ranges []float64) (float64, bool) {
	best := math.Inf(1)
	for _, r := range ranges {
		if r > 0 && r < best {
			best = r
		}
	}
	return best, !math.IsInf(best, 1)
}
