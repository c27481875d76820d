package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"multisim.dev/internal/observerproto"
	"multisim.dev/internal/sim/worldtest"
)

func TestBootstrapHandler(t *testing.T) {
	h := worldtest.New(t, worldtest.Config{NumRobots: 3, WallCount: 6})
	srv := httptest.NewServer(NewServer(h.W, nil).BootstrapHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var b observerproto.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(b.Walls) != 6 || len(b.Boundary) != 4 || len(b.Robots) != 3 {
		t.Fatalf("walls=%d boundary=%d robots=%d", len(b.Walls), len(b.Boundary), len(b.Robots))
	}
	if b.ProtocolVersion != observerproto.Version || b.WorldParams.NumRobots != 3 {
		t.Fatalf("bootstrap=%+v", b)
	}

	post, err := http.Post(srv.URL, "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("post status=%d", post.StatusCode)
	}
}

func TestWSHandler_SubscribeThenTicks(t *testing.T) {
	h := worldtest.New(t, worldtest.Config{NumRobots: 2})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx)

	srv := httptest.NewServer(NewServer(h.W, nil).WSHandler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(observerproto.SubscribeMsg{
		Type:            observerproto.TypeSubscribe,
		ProtocolVersion: observerproto.Version,
		IncludePaths:    true,
		IncludeScans:    true,
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var sawScan bool
	for i := 0; i < 100 && !sawScan; i++ {
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg observerproto.TickMsg
		if err := json.Unmarshal(b, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Type != observerproto.TypeTick || len(msg.Robots) != 2 {
			t.Fatalf("tick=%+v", msg)
		}
		for _, r := range msg.Robots {
			if r.Scan != nil {
				sawScan = true
			}
		}
	}
	if !sawScan {
		t.Fatalf("no scan in 100 ticks")
	}
}

func TestWSHandler_RejectsWrongFirstMessage(t *testing.T) {
	h := worldtest.New(t, worldtest.Config{})
	srv := httptest.NewServer(NewServer(h.W, nil).WSHandler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.WriteJSON(map[string]string{"type": "HELLO", "protocol_version": observerproto.Version})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.2:80":    false,
		"garbage":        false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
}

func TestDecodeSubscribe(t *testing.T) {
	sub, ok := decodeSubscribe([]byte(`{"type":"SUBSCRIBE","protocol_version":"` + observerproto.Version + `","include_paths":true,"path_limit":99999}`))
	if !ok || !sub.IncludePaths || sub.PathLimit != maxPathLimit {
		t.Fatalf("sub=%+v ok=%v", sub, ok)
	}
	sub, ok = decodeSubscribe([]byte(`{"type":"SUBSCRIBE","protocol_version":"` + observerproto.Version + `","path_limit":20}`))
	if !ok || sub.PathLimit != 20 {
		t.Fatalf("sub=%+v ok=%v", sub, ok)
	}
	if _, ok := decodeSubscribe([]byte(`{"type":"SUBSCRIBE","protocol_version":"9.9"}`)); ok {
		t.Fatalf("wrong version accepted")
	}
	if _, ok := decodeSubscribe([]byte(`not json`)); ok {
		t.Fatalf("garbage accepted")
	}
}
