package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// stateDigest hashes everything that evolves during a run. Walls are fixed by
// the seed and enter only through it.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteI64(h, &tmp, w.cfg.Seed)
	digestWriteU64(h, &tmp, uint64(len(w.robots)))
	for _, r := range w.robots {
		w.digestRobot(h, &tmp, r)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestRobot(h hashWriter, tmp *[8]byte, r *Robot) {
	digestWriteU64(h, tmp, uint64(r.Index))
	p := r.Drive.Pose
	digestWriteF64(h, tmp, p.X)
	digestWriteF64(h, tmp, p.Y)
	digestWriteF64(h, tmp, p.Theta)
	digestWriteF64(h, tmp, r.Drive.Phi.Left)
	digestWriteF64(h, tmp, r.Drive.Phi.Right)
	enc := r.Proc.Encoders()
	digestWriteI64(h, tmp, enc.Left)
	digestWriteI64(h, tmp, enc.Right)
	digestWriteF64(h, tmp, r.Cmd.Left)
	digestWriteF64(h, tmp, r.Cmd.Right)
	digestWriteU64(h, tmp, uint64(len(r.Path)))
	if st, err := r.Src.State(); err == nil {
		h.Write(st)
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}
