package world

import (
	"context"
	"errors"
	"fmt"

	"multisim.dev/internal/sim/geom"
)

type controlReq struct {
	Op   ControlOp
	Resp chan controlResp
}

type controlResp struct {
	Tick uint64
	Err  error
}

func (r controlReq) respond(tick uint64, err error) {
	if r.Resp == nil {
		return
	}
	select {
	case r.Resp <- controlResp{Tick: tick, Err: err}:
	default:
		// Caller gave up; don't block the sim loop.
	}
}

// RequestReset zeroes the tick counter and returns robot 0 to the origin at the
// end of the next tick. It is safe to call from other goroutines.
func (w *World) RequestReset(ctx context.Context, actor string) (tick uint64, err error) {
	return w.requestControl(ctx, ControlOp{Kind: ControlReset, Actor: actor})
}

// RequestTeleport overwrites the pose of robot at the end of the next tick.
// Encoders, wheel angles and the tick counter are left untouched.
func (w *World) RequestTeleport(ctx context.Context, actor string, robot int, pose geom.Pose) (tick uint64, err error) {
	if !w.validRobot(robot) {
		return 0, fmt.Errorf("%w: %d", ErrBadRobot, robot)
	}
	return w.requestControl(ctx, ControlOp{Kind: ControlTeleport, Actor: actor, Robot: robot, Pose: pose})
}

func (w *World) requestControl(ctx context.Context, op ControlOp) (uint64, error) {
	if w == nil || w.control == nil {
		return 0, errors.New("control not available")
	}
	resp := make(chan controlResp, 1)
	select {
	case w.control <- controlReq{Op: op, Resp: resp}:
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

func (w *World) applyControl(nowTick uint64, op ControlOp) error {
	actor := op.Actor
	if actor == "" {
		actor = "ADMIN"
	}
	switch op.Kind {
	case ControlReset:
		r := w.robots[0]
		from := r.Drive.Pose
		r.Drive.Pose = geom.Pose{}
		w.tick.Store(0)
		w.resetTotal++
		w.audit(AuditEntry{Tick: nowTick, Actor: actor, Action: ControlReset, Robot: 0, From: from})
		return nil
	case ControlTeleport:
		if !w.validRobot(op.Robot) {
			return fmt.Errorf("%w: %d", ErrBadRobot, op.Robot)
		}
		r := w.robots[op.Robot]
		from := r.Drive.Pose
		to := op.Pose
		to.Theta = geom.NormalizeAngle(to.Theta)
		r.Drive.Pose = to
		w.teleportTotal++
		w.audit(AuditEntry{Tick: nowTick, Actor: actor, Action: ControlTeleport, Robot: op.Robot, From: from, To: to})
		return nil
	}
	return fmt.Errorf("world: unknown control %q", op.Kind)
}

func (w *World) audit(e AuditEntry) {
	w.auditsThisTick = append(w.auditsThisTick, e)
	if w.auditLogger != nil {
		_ = w.auditLogger.WriteAudit(e)
	}
}
