package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	persistlog "multisim.dev/internal/persistence/log"
	"multisim.dev/internal/persistence/snapshot"
	"multisim.dev/internal/sim/world"
)

var errNoStart = errors.New("no logged tick continues the snapshot state")

func main() {
	var (
		snapPath = flag.String("snapshot", "", "path to .snap.zst")
		runDir   = flag.String("run_dir", "", "run dir containing events/events-*.jsonl.zst (default: two levels above -snapshot)")
		maxTicks = flag.Int("max_ticks", 0, "stop after verifying this many ticks (0 = all)")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	size := ""
	if st, err := os.Stat(*snapPath); err == nil {
		size = humanize.Bytes(uint64(st.Size()))
	}
	fmt.Printf("snapshot v%d run=%s tick=%d seed=%d robots=%d walls=%d size=%s\n",
		snap.Header.Version, snap.Header.RunID, snap.Header.Tick, snap.Seed, len(snap.Robots), len(snap.Walls), size)

	dir := *runDir
	if dir == "" {
		dir = filepath.Dir(filepath.Dir(*snapPath))
	}
	files, err := persistlog.EventFiles(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", filepath.Join(dir, "events"))
		os.Exit(1)
	}

	var entries []world.TickLogEntry
	var logBytes uint64
	for _, path := range files {
		if st, err := os.Stat(path); err == nil {
			logBytes += uint64(st.Size())
		}
		if err := persistlog.ReadTicks(path, func(e world.TickLogEntry) error {
			entries = append(entries, e)
			return nil
		}); err != nil {
			fmt.Fprintln(os.Stderr, "read events:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("events files=%d entries=%s size=%s\n", len(files), humanize.Comma(int64(len(entries))), humanize.Bytes(logBytes))

	checked, err := replay(context.Background(), snap, entries, *maxTicks)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%s ticks (from snapshot tick=%d)\n", humanize.Comma(int64(checked)), snap.Header.Tick)
}

// replay restores snap and re-runs the logged ticks that follow it, comparing
// digests. Tick numbers restart on reset, so several log positions can carry
// the tick after the snapshot; the first whose digest matches is used.
func replay(ctx context.Context, snap snapshot.SnapshotV1, entries []world.TickLogEntry, limit int) (int, error) {
	want := snap.Header.Tick + 1
	for i, e := range entries {
		if e.Tick != want {
			continue
		}
		w, err := world.NewFromSnapshot(ctx, snap)
		if err != nil {
			return 0, err
		}
		if _, d := w.StepOnce(e.Commands, e.Controls); d != e.Digest {
			continue
		}
		checked := 1
		for _, next := range entries[i+1:] {
			if limit > 0 && checked >= limit {
				break
			}
			if next.Tick != w.CurrentTick()+1 {
				return checked, fmt.Errorf("tick gap: world expects %d, log has %d", w.CurrentTick()+1, next.Tick)
			}
			tick, d := w.StepOnce(next.Commands, next.Controls)
			if d != next.Digest {
				return checked, fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, d, next.Digest)
			}
			checked++
		}
		return checked, nil
	}
	return 0, errNoStart
}
