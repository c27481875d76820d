package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"multisim.dev/internal/persistence/snapshot"
	"multisim.dev/internal/sim/maze"
	"multisim.dev/internal/sim/tuning"
	"multisim.dev/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index of a run. Writes are queued and
// applied by a single goroutine; the JSONL logs remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick     atomic.Uint64
	dropAudit    atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqAudit
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     world.TickLogEntry
	audit    world.AuditEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	Seed       int64
	Robots     int
	Walls      int
	PathPoints int
}

// Stats reports queue pressure. Drops happen only when the writer falls behind.
type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropTickTotal     uint64 `json:"drop_tick_total"`
	DropAuditTotal    uint64 `json:"drop_audit_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Several seconds of ticks at the default rate.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS params (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS walls (
			idx INTEGER PRIMARY KEY,
			x REAL NOT NULL,
			y REAL NOT NULL,
			orientation TEXT NOT NULL,
			length REAL NOT NULL,
			breadth REAL NOT NULL
		);`,
		// The tick counter restarts on reset, so rows are keyed by arrival order.
		`CREATE TABLE IF NOT EXISTS ticks (
			seq INTEGER PRIMARY KEY,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			commands INTEGER NOT NULL,
			controls INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_tick ON ticks(tick);`,
		`CREATE TABLE IF NOT EXISTS commands (
			seq INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			robot INTEGER NOT NULL,
			left_cmd REAL NOT NULL,
			right_cmd REAL NOT NULL,
			PRIMARY KEY (seq, robot)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_robot_tick ON commands(robot, tick);`,
		`CREATE TABLE IF NOT EXISTS audits (
			seq INTEGER PRIMARY KEY,
			tick INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			robot INTEGER NOT NULL,
			from_x REAL NOT NULL,
			from_y REAL NOT NULL,
			from_theta REAL NOT NULL,
			to_x REAL NOT NULL,
			to_y REAL NOT NULL,
			to_theta REAL NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_robot_tick ON audits(robot, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER NOT NULL,
			path TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			robots INTEGER NOT NULL,
			walls INTEGER NOT NULL,
			path_points INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropTickTotal:     s.dropTick.Load(),
		DropAuditTotal:    s.dropAudit.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:   snap.Header.Tick,
		Path:   path,
		Seed:   snap.Seed,
		Robots: len(snap.Robots),
		Walls:  len(snap.Walls),
	}
	for _, rb := range snap.Robots {
		r.PathPoints += len(rb.Path)
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// UpsertRun records the run identity, the tuning actually applied and the
// generated walls. It runs synchronously at startup.
func (s *SQLiteIndex) UpsertRun(runID string, tune tuning.Tuning, m *maze.Maze) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tuneJSON, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(tuneJSON)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	meta := [][2]string{
		{"schema_version", "1"},
		{"run_id", runID},
		{"seed", fmt.Sprint(tune.Seed)},
		{"arena_width", fmt.Sprint(m.Arena.Width)},
		{"arena_height", fmt.Sprint(m.Arena.Height)},
	}
	for _, kv := range meta {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, kv[0], kv[1]); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO params(name,digest,json,updated_at) VALUES(?,?,?,?)`,
		"tuning", hex.EncodeToString(sum[:]), string(tuneJSON), now); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM walls`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO walls(idx,x,y,orientation,length,breadth) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, w := range m.Walls {
		if _, err := stmt.Exec(i, w.Center.X, w.Center.Y, w.Orientation.String(), w.Length, w.Breadth); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT INTO ticks(tick,digest,commands,controls,raw_json) VALUES(?,?,?,?,?)`)
	insertCommand, _ := s.db.Prepare(`INSERT OR REPLACE INTO commands(seq,tick,robot,left_cmd,right_cmd) VALUES(?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT INTO audits(tick,actor,action,robot,from_x,from_y,from_theta,to_x,to_y,to_theta,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,seed,robots,walls,path_points) VALUES(?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertCommand, insertAudit, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			if insertTick == nil {
				break
			}
			b, _ := json.Marshal(r.tick)
			res, err := tx.Stmt(insertTick).Exec(
				int64(r.tick.Tick),
				r.tick.Digest,
				len(r.tick.Commands),
				len(r.tick.Controls),
				string(b),
			)
			if err != nil {
				rollback()
				continue
			}
			opCount++
			seq, err := res.LastInsertId()
			if err != nil || insertCommand == nil {
				break
			}
			for _, c := range r.tick.Commands {
				if _, err := tx.Stmt(insertCommand).Exec(seq, int64(r.tick.Tick), c.Robot, c.Cmd.Left, c.Cmd.Right); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqAudit:
			a := r.audit
			if insertAudit == nil {
				break
			}
			raw, _ := json.Marshal(a)
			if _, err := tx.Stmt(insertAudit).Exec(
				int64(a.Tick),
				a.Actor,
				a.Action,
				a.Robot,
				a.From.X, a.From.Y, a.From.Theta,
				a.To.X, a.To.Y, a.To.Theta,
				a.Reason,
				string(raw),
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot == nil {
				break
			}
			if _, err := tx.Stmt(insertSnapshot).Exec(
				int64(sn.Tick),
				sn.Path,
				sn.Seed,
				sn.Robots,
				sn.Walls,
				sn.PathPoints,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		flushIfNeeded()
	}

	commit()
}
