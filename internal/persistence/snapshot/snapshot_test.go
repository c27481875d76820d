package snapshot

import (
	"path/filepath"
	"testing"
)

func TestWriteReadSnapshot(t *testing.T) {
	p := filepath.Join(t.TempDir(), "snap", "42.snap.zst")
	in := SnapshotV1{
		Header:      Header{Version: Version, RunID: "run-1", Tick: 42},
		Seed:        7,
		NumRobots:   2,
		TickRate:    200,
		ArenaWidth:  5.5,
		ArenaHeight: 6.25,
		Walls:       []WallV1{{X: 0.5, Y: -1, Orientation: 1, Length: 1, Breadth: 0.1}},
		Robots: []RobotV1{
			{Index: 0, Color: "red", Pose: [3]float64{0.1, 0.2, 0.3}, Encoders: [2]int64{10, -4}, RNG: []byte{1, 2, 3}},
			{Index: 1, Color: "green", Path: [][3]float64{{1, 1, 0}, {1.1, 1, 0}}},
		},
	}
	if err := WriteSnapshot(p, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	h, err := ReadHeader(p)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h != in.Header {
		t.Fatalf("header=%+v want %+v", h, in.Header)
	}

	out, err := ReadSnapshot(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Seed != 7 || out.ArenaWidth != 5.5 || len(out.Walls) != 1 || len(out.Robots) != 2 {
		t.Fatalf("snapshot=%+v", out)
	}
	if out.Robots[0].Encoders != [2]int64{10, -4} || string(out.Robots[0].RNG) != "\x01\x02\x03" {
		t.Fatalf("robot0=%+v", out.Robots[0])
	}
	if len(out.Robots[1].Path) != 2 {
		t.Fatalf("robot1 path=%v", out.Robots[1].Path)
	}
}

func TestReadSnapshot_RejectsUnknownVersion(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.snap.zst")
	if err := WriteSnapshot(p, SnapshotV1{Header: Header{Version: 99}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(p); err == nil {
		t.Fatalf("expected version error")
	}
}
