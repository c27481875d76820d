package observer

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"multisim.dev/internal/observerproto"
	"multisim.dev/internal/sim/world"
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		resp := s.world.ObserverBootstrap()

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := decodeSubscribe(msg)
		if !ok {
			closeWith(conn, websocket.ClosePolicyViolation, "expected SUBSCRIBE")
			return
		}

		sid := "obs-" + uuid.NewString()
		frames := make(chan []byte, 8)
		select {
		case s.world.ObserverJoin() <- world.ObserverJoinRequest{
			SessionID:    sid,
			Out:          frames,
			IncludePaths: sub.IncludePaths,
			IncludeScans: sub.IncludeScans,
			PathLimit:    sub.PathLimit,
		}:
		default:
			closeWith(conn, websocket.CloseTryAgainLater, "server busy")
			return
		}
		if s.log != nil {
			s.log.Printf("observer %s joined paths=%v scans=%v", sid, sub.IncludePaths, sub.IncludeScans)
		}
		defer func() {
			select {
			case s.world.ObserverLeave() <- sid:
			default:
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pumped := make(chan struct{})
		go func() {
			defer close(pumped)
			pump(ctx, conn, frames)
		}()

		// Later SUBSCRIBE messages change the stream settings.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			sub, ok := decodeSubscribe(msg)
			if !ok {
				continue
			}
			select {
			case s.world.ObserverSubscribe() <- world.ObserverSubscribeRequest{
				SessionID:    sid,
				IncludePaths: sub.IncludePaths,
				IncludeScans: sub.IncludeScans,
				PathLimit:    sub.PathLimit,
			}:
			default:
			}
		}

		cancel()
		closeWith(conn, websocket.CloseNormalClosure, "bye")
		select {
		case <-pumped:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// pump writes TICK frames until ctx is done, the world closes frames, or a
// write fails.
func pump(ctx context.Context, conn *websocket.Conn, frames <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-frames:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

func decodeSubscribe(msg []byte) (observerproto.SubscribeMsg, bool) {
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return sub, false
	}
	if sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
		return sub, false
	}
	normalizeSubscribe(&sub)
	return sub, true
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

// maxPathLimit bounds the trailing path points sent per robot per tick.
const maxPathLimit = 5000

func normalizeSubscribe(sub *observerproto.SubscribeMsg) {
	if sub.PathLimit <= 0 || sub.PathLimit > maxPathLimit {
		sub.PathLimit = maxPathLimit
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
