package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"multisim.dev/internal/sim/geom"
	"multisim.dev/internal/sim/world"
)

type teleportRequest struct {
	Robot int     `json:"robot"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
	Actor string  `json:"actor,omitempty"`
}

func adminGuard(rw http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func writeResult(rw http.ResponseWriter, status int, v map[string]any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func stateHandler(w *world.World, runID string) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !adminGuard(rw, r, http.MethodGet) {
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		resp := struct {
			RunID   string             `json:"run_id"`
			Tick    uint64             `json:"tick"`
			Metrics world.WorldMetrics `json:"metrics"`
		}{
			RunID:   runID,
			Tick:    w.CurrentTick(),
			Metrics: w.Metrics(),
		}
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func snapshotHandler(w *world.World) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !adminGuard(rw, r, http.MethodPost) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		tick, err := w.RequestSnapshot(ctx)
		if err != nil {
			writeResult(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "tick": tick, "error": err.Error()})
			return
		}
		writeResult(rw, http.StatusOK, map[string]any{"ok": true, "tick": tick})
	}
}

func resetHandler(w *world.World) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !adminGuard(rw, r, http.MethodPost) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		tick, err := w.RequestReset(ctx, actorOf(r, ""))
		if err != nil {
			writeResult(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeResult(rw, http.StatusOK, map[string]any{"ok": true, "tick": tick})
	}
}

func teleportHandler(w *world.World) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !adminGuard(rw, r, http.MethodPost) {
			return
		}
		var req teleportRequest
		if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, 4096)).Decode(&req); err != nil {
			writeResult(rw, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad json: " + err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		tick, err := w.RequestTeleport(ctx, actorOf(r, req.Actor), req.Robot, geom.Pose{X: req.X, Y: req.Y, Theta: req.Theta})
		switch {
		case errors.Is(err, world.ErrBadRobot):
			writeResult(rw, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		case err != nil:
			writeResult(rw, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		default:
			writeResult(rw, http.StatusOK, map[string]any{"ok": true, "tick": tick})
		}
	}
}

// actorOf names who issued an admin operation for the audit log.
func actorOf(r *http.Request, fromBody string) string {
	if a := strings.TrimSpace(fromBody); a != "" {
		return a
	}
	if a := strings.TrimSpace(r.Header.Get("X-Actor")); a != "" {
		return a
	}
	return "ADMIN"
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
