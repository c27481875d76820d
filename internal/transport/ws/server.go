package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"multisim.dev/internal/protocol"
	"multisim.dev/internal/sim/kinematics"
	"multisim.dev/internal/sim/process"
	"multisim.dev/internal/sim/world"
)

// maxCmdsPerSecond caps how many CMD messages one session may send.
const maxCmdsPerSecond = 1000

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		robot, sessionID, out := s.handshake(r.Context(), conn)
		if sessionID == "" {
			return
		}
		if s.log != nil {
			s.log.Printf("robot %d attached session=%s", robot, sessionID)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine. All writes after the handshake go through it.
		replies := make(chan []byte, 4)
		go func() {
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case b = <-replies:
				case msg, ok := <-out:
					if !ok {
						return
					}
					b = msg
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}()

		reply := func(code, msg string) {
			b, err := json.Marshal(protocol.NewError(code, msg))
			if err != nil {
				return
			}
			select {
			case replies <- b:
			default:
			}
		}

		windowStart := time.Now()
		windowCount := 0

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				reply(protocol.ErrProtoBadRequest, "malformed JSON")
				continue
			}
			if base.Type != protocol.TypeCmd {
				reply(protocol.ErrProtoBadRequest, fmt.Sprintf("unexpected message type %q", base.Type))
				continue
			}
			var cmd protocol.CmdMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				reply(protocol.ErrProtoBadRequest, err.Error())
				continue
			}
			if cmd.ProtocolVersion != protocol.Version {
				reply(protocol.ErrProtoVersion, "bad protocol_version")
				continue
			}
			if cmd.Robot != robot {
				reply(protocol.ErrBadRobot, fmt.Sprintf("session drives robot %d", robot))
				continue
			}
			if err := cmd.Validate(); err != nil {
				reply(protocol.ErrBadRequest, err.Error())
				continue
			}

			if now := time.Now(); now.Sub(windowStart) >= time.Second {
				windowStart, windowCount = now, 0
			}
			windowCount++
			if windowCount > maxCmdsPerSecond {
				reply(protocol.ErrRateLimit, "too many commands")
				continue
			}

			wc, err := s.wheelCommand(cmd)
			if err != nil {
				reply(protocol.ErrBadRequest, err.Error())
				continue
			}
			select {
			case s.world.Inbox() <- world.CommandEnvelope{Robot: robot, Cmd: wc}:
			default:
				reply(protocol.ErrRateLimit, "command queue full")
			}
		}

		// Cleanup.
		s.world.Detach() <- world.DetachRequest{Robot: robot, SessionID: sessionID}
		if s.log != nil {
			s.log.Printf("robot %d detached session=%s", robot, sessionID)
		}
	}
}

func (s *Server) wheelCommand(cmd protocol.CmdMsg) (process.WheelCommand, error) {
	if cmd.Wheels != nil {
		return process.WheelCommand{Left: cmd.Wheels.Left, Right: cmd.Wheels.Right}, nil
	}
	return s.world.WheelCommand(kinematics.Twist{Omega: cmd.Twist.Omega, X: cmd.Twist.VX, Y: cmd.Twist.VY})
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (robot int, sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return 0, "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		reject(conn, protocol.ErrProtoBadRequest, "expected HELLO")
		return 0, "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		reject(conn, protocol.ErrProtoBadRequest, err.Error())
		return 0, "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		reject(conn, protocol.ErrProtoVersion, "bad protocol_version")
		return 0, "", nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	out = make(chan []byte, 8)
	sessionID = uuid.NewString()
	respCh := make(chan world.AttachResponse, 1)
	select {
	case s.world.Attach() <- world.AttachRequest{
		Robot:      hello.Robot,
		SessionID:  sessionID,
		ClientName: hello.ClientName,
		Out:        out,
		Resp:       respCh,
	}:
	case <-ctx.Done():
		return 0, "", nil
	}

	var resp world.AttachResponse
	select {
	case resp = <-respCh:
	case <-ctx.Done():
		// The world may still grant the robot; give it back.
		go func() {
			if r := <-respCh; r.Code == "" {
				s.world.Detach() <- world.DetachRequest{Robot: hello.Robot, SessionID: sessionID}
			}
		}()
		return 0, "", nil
	}
	if resp.Code != "" {
		reject(conn, resp.Code, resp.Message)
		return 0, "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.world.Detach() <- world.DetachRequest{Robot: hello.Robot, SessionID: sessionID}
		return 0, "", nil
	}
	return hello.Robot, sessionID, out
}

// reject sends an ERROR message and closes the connection.
func reject(conn *websocket.Conn, code, msg string) {
	_ = writeJSON(conn, protocol.NewError(code, msg))
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, code), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
