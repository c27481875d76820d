package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"multisim.dev/internal/persistence/indexdb"
	persistlog "multisim.dev/internal/persistence/log"
	"multisim.dev/internal/persistence/snapshot"
	"multisim.dev/internal/sim/tuning"
	"multisim.dev/internal/sim/world"
	"multisim.dev/internal/transport/observer"
	"multisim.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		runID      = flag.String("run", "", "run id (default: random; a fixed id lets restarts resume from the latest snapshot)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed       = flag.Int64("seed", 0, "override the seed from tuning.yaml (fresh runs only)")
		numRobots  = flag.Int("robots", 0, "override num_robots from tuning.yaml (fresh runs only)")
		envFile    = flag.String("env", ".env", "optional dotenv file")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from the run dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("env file %s: %v", *envFile, err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if *seed != 0 {
		tune.Seed = *seed
	}
	if *numRobots > 0 {
		tune.NumRobots = *numRobots
	}
	if err := tune.Validate(); err != nil {
		logger.Fatalf("tuning: %v", err)
	}

	id := strings.TrimSpace(*runID)
	if id == "" {
		id = uuid.NewString()
	}
	runDir := filepath.Join(*dataDir, "runs", id)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logger.Fatalf("run dir: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(runDir)
	}

	var w *world.World
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.RunID != "" && snap.Header.RunID != id {
			logger.Fatalf("snapshot run id mismatch: flag=%s snap=%s", id, snap.Header.RunID)
		}
		w, err = world.NewFromSnapshot(ctx, snap)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), w.CurrentTick())
	} else {
		cfg := world.ConfigFromTuning(tune)
		cfg.RunID = id
		w, err = world.New(ctx, cfg)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
	}
	cfg := w.Config()
	logger.Printf("Seed: %d, Num robots: %d", cfg.Seed, cfg.NumRobots)
	logger.Printf("run=%s arena=%.2fx%.2f walls=%d spawns=%d attempts=%d",
		id, w.Maze().Arena.Width, w.Maze().Arena.Height, len(w.Maze().Walls), len(w.Maze().Spawns), w.Maze().Attempts)

	var idx *indexdb.SQLiteIndex
	if !*disableDB && envBool("MS_ENABLE_INDEX_DB", true) {
		idx, err = indexdb.OpenSQLite(filepath.Join(runDir, "index", "run.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertRun(id, tune, w.Maze()); err != nil {
			logger.Printf("index: upsert run: %v", err)
		}
	}

	tickLog := persistlog.NewTickLogger(runDir)
	auditLog := persistlog.NewAuditLogger(runDir)
	defer tickLog.Close()
	defer auditLog.Close()
	if idx != nil {
		w.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
		w.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})
	} else {
		w.SetTickLogger(tickLog)
		w.SetAuditLogger(auditLog)
	}

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(runDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
				if err := snapshot.WriteSnapshot(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if st, err := os.Stat(path); err == nil {
					logger.Printf("snapshot tick=%d size=%s", snap.Header.Tick, humanize.Bytes(uint64(st.Size())))
				}
				if idx != nil {
					idx.RecordSnapshot(path, snap)
				}
			}
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(w, id, idx))

	enableAdminHTTP := envBool("MS_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("MS_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", stateHandler(w, id))
		mux.HandleFunc("/admin/v1/snapshot", snapshotHandler(w))
		mux.HandleFunc("/admin/v1/reset", resetHandler(w))
		mux.HandleFunc("/admin/v1/teleport", teleportHandler(w))

		obsSrv := observer.NewServer(w, logger)
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	} else {
		logger.Printf("admin endpoints disabled (MS_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (MS_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(runDir string) string {
	dir := filepath.Join(runDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestMod time.Time
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		if _, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64); err != nil {
			continue
		}
		// Ticks restart on reset, so the newest file wins, not the largest tick.
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			bestMod = info.ModTime()
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a world.AuditLogger
	b world.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry world.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
