package world

import (
	"context"
	"time"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingCommands []CommandEnvelope
	var pendingControls []controlReq
	var pendingAdmin []adminSnapshotReq

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.attach:
			w.handleAttach(req)
		case req := <-w.detach:
			w.handleDetach(req)
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case req := <-w.observerSub:
			w.handleObserverSubscribe(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case req := <-w.admin:
			pendingAdmin = append(pendingAdmin, req)
		case req := <-w.control:
			pendingControls = append(pendingControls, req)
		case env := <-w.inbox:
			pendingCommands = append(pendingCommands, env)
		case <-ticker.C:
			w.stepInternal(pendingCommands, pendingControls)
			w.handleAdminSnapshotRequests(pendingAdmin)
			pendingCommands = pendingCommands[:0]
			pendingControls = pendingControls[:0]
			pendingAdmin = pendingAdmin[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It returns the tick the step ran as and the digest of the resulting state.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce(cmds []CommandEnvelope, ops []ControlOp) (tick uint64, digest string) {
	reqs := make([]controlReq, 0, len(ops))
	for _, op := range ops {
		reqs = append(reqs, controlReq{Op: op})
	}
	return w.stepInternal(cmds, reqs)
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
