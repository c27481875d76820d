package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"multisim.dev/internal/sim/worldtest"
)

func postJSON(t *testing.T, h http.HandlerFunc, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:4000"
	rec := httptest.NewRecorder()
	h(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out
}

func TestAdminHandlers_ResetAndTeleport(t *testing.T) {
	h := worldtest.New(t, worldtest.Config{NumRobots: 2})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx)

	if code, out := postJSON(t, resetHandler(h.W), ""); code != http.StatusOK || out["ok"] != true {
		t.Fatalf("reset: %d %v", code, out)
	}
	if code, out := postJSON(t, teleportHandler(h.W), `{"robot":1,"x":0.5,"y":-0.5,"theta":1}`); code != http.StatusOK {
		t.Fatalf("teleport: %d %v", code, out)
	}
	if code, _ := postJSON(t, teleportHandler(h.W), `{"robot":7}`); code != http.StatusBadRequest {
		t.Fatalf("bad robot teleport code=%d", code)
	}
	if code, _ := postJSON(t, teleportHandler(h.W), `{`); code != http.StatusBadRequest {
		t.Fatalf("bad json code=%d", code)
	}

	// No sink configured.
	if code, _ := postJSON(t, snapshotHandler(h.W), ""); code != http.StatusServiceUnavailable {
		t.Fatalf("snapshot without sink code=%d", code)
	}
}

func TestAdminGuard(t *testing.T) {
	h := worldtest.New(t, worldtest.Config{})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.1.2.3:4000"
	rec := httptest.NewRecorder()
	resetHandler(h.W)(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote reset code=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	rec = httptest.NewRecorder()
	resetHandler(h.W)(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET reset code=%d", rec.Code)
	}
}

func TestMetricsHandler(t *testing.T) {
	h := worldtest.New(t, worldtest.Config{NumRobots: 2})
	h.StepFor(3)
	rec := httptest.NewRecorder()
	metricsHandler(h.W, "r1", nil)(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{`multisim_tick{run="r1"} 3`, `multisim_robots{run="r1"} 2`, `multisim_scans_total{run="r1"} 2`} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestLatestSnapshot_NewestFileWins(t *testing.T) {
	dir := t.TempDir()
	snaps := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snaps, 0o755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	for _, name := range []string{"4000.snap.zst", "2000.snap.zst", "junk.snap.zst", "notes.txt"} {
		p := filepath.Join(snaps, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if name != "2000.snap.zst" {
			_ = os.Chtimes(p, old, old)
		}
	}
	if got := latestSnapshot(dir); filepath.Base(got) != "2000.snap.zst" {
		t.Fatalf("latest=%q", got)
	}
	if got := latestSnapshot(filepath.Join(dir, "missing")); got != "" {
		t.Fatalf("missing dir latest=%q", got)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("MS_TEST_BOOL", "false")
	if envBool("MS_TEST_BOOL", true) {
		t.Fatalf("explicit false ignored")
	}
	t.Setenv("MS_TEST_BOOL", "nope")
	if !envBool("MS_TEST_BOOL", true) {
		t.Fatalf("bad value should fall back to default")
	}
	t.Setenv("DEPLOY_ENV", "production")
	if defaultEnableAdminHTTP() {
		t.Fatalf("admin enabled in production")
	}
}
