package world

import (
	"context"
	"testing"

	"multisim.dev/internal/persistence/snapshot"
	"multisim.dev/internal/sim/process"
)

func TestSnapshot_ExportImportContinuesIdentically(t *testing.T) {
	cfg := mazeConfig(3)
	cfg.SensorEveryTicks = 7
	cfg.PathEveryTicks = 5
	a := newTestWorld(t, cfg)

	cmds := []CommandEnvelope{
		{Robot: 0, Cmd: process.WheelCommand{Left: 90, Right: 110}},
		{Robot: 2, Cmd: process.WheelCommand{Left: -60, Right: 40}},
	}
	for i := 0; i < 50; i++ {
		var in []CommandEnvelope
		if i == 0 {
			in = cmds
		}
		a.StepOnce(in, nil)
	}

	snap := a.ExportSnapshot()
	if snap.Header.Tick != 50 || len(snap.Robots) != 3 || len(snap.Walls) != len(a.maze.Walls) {
		t.Fatalf("snapshot header=%+v robots=%d walls=%d", snap.Header, len(snap.Robots), len(snap.Walls))
	}
	b, err := NewFromSnapshot(context.Background(), snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if b.CurrentTick() != 50 {
		t.Fatalf("restored tick=%d", b.CurrentTick())
	}
	if b.stateDigest(50) != a.stateDigest(50) {
		t.Fatalf("restored digest differs")
	}

	more := []CommandEnvelope{{Robot: 1, Cmd: process.WheelCommand{Left: 30, Right: 30}}}
	for i := 0; i < 40; i++ {
		var in []CommandEnvelope
		if i == 10 {
			in = more
		}
		ta, da := a.StepOnce(in, nil)
		tb, db := b.StepOnce(in, nil)
		if ta != tb || da != db {
			t.Fatalf("step %d after restore diverged", i)
		}
	}
}

func TestImportSnapshot_RejectsMismatch(t *testing.T) {
	w := newTestWorld(t, mazeConfig(2))
	snap := w.ExportSnapshot()

	bad := snap
	bad.Header.Version = 99
	if err := w.ImportSnapshot(bad); err == nil {
		t.Fatalf("expected version error")
	}

	bad = snap
	bad.Seed = 2
	if err := w.ImportSnapshot(bad); err == nil {
		t.Fatalf("expected seed error")
	}

	bad = snap
	bad.Robots = bad.Robots[:1]
	if err := w.ImportSnapshot(bad); err == nil {
		t.Fatalf("expected robot count error")
	}

	if len(snap.Walls) > 0 {
		bad = snap
		bad.Walls = append([]snapshot.WallV1(nil), snap.Walls...)
		bad.Walls[0].X += 0.5
		if err := w.ImportSnapshot(bad); err == nil {
			t.Fatalf("expected wall mismatch error")
		}
	}
}
