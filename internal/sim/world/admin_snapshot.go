package world

import (
	"context"
	"errors"
)

var (
	// ErrNoSnapshotSink means the world has nowhere to send snapshots.
	ErrNoSnapshotSink = errors.New("world: snapshot sink not configured")
	// ErrSnapshotBusy means the sink was still full at the tick boundary.
	ErrSnapshotBusy = errors.New("world: snapshot sink backpressure")
)

type adminSnapshotReq struct {
	Resp chan controlResp
}

// RequestSnapshot exports the state at the next tick boundary and hands it to
// the snapshot sink. It returns the tick the snapshot was taken at.
func (w *World) RequestSnapshot(ctx context.Context) (tick uint64, err error) {
	if w == nil || w.admin == nil {
		return 0, ErrNoSnapshotSink
	}
	resp := make(chan controlResp, 1)
	select {
	case w.admin <- adminSnapshotReq{Resp: resp}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case r := <-resp:
		return r.Tick, r.Err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// handleAdminSnapshotRequests answers every request queued during the last
// tick with one shared snapshot.
func (w *World) handleAdminSnapshotRequests(reqs []adminSnapshotReq) {
	if len(reqs) == 0 {
		return
	}
	res := controlResp{Tick: w.tick.Load()}
	switch {
	case w.snapshotSink == nil:
		res.Err = ErrNoSnapshotSink
	default:
		select {
		case w.snapshotSink <- w.ExportSnapshot():
		default:
			res.Err = ErrSnapshotBusy
		}
	}
	for _, r := range reqs {
		select {
		case r.Resp <- res:
		default:
		}
	}
}
