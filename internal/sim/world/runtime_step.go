package world

import (
	"encoding/json"
	"time"

	"multisim.dev/internal/protocol"
)

// stepInternal runs one tick:
//  1. latest commands are applied, last value wins per robot;
//  2. the tick counter advances;
//  3. every robot's process model and kinematics run;
//  4. scans and path samples are taken on their sub-rates;
//  5. control operations apply in arrival order;
//  6. the digest is logged and state is broadcast.
func (w *World) stepInternal(cmds []CommandEnvelope, ctrls []controlReq) (uint64, string) {
	stepStart := time.Now()
	w.auditsThisTick = w.auditsThisTick[:0]

	recorded := make([]CommandEnvelope, 0, len(cmds))
	for _, env := range cmds {
		if !w.validRobot(env.Robot) {
			continue
		}
		w.robots[env.Robot].Cmd = env.Cmd
		recorded = append(recorded, env)
	}
	w.commandsTotal += uint64(len(recorded))

	nowTick := w.tick.Add(1)
	dt := w.cfg.dt()
	for _, r := range w.robots {
		delta := r.Proc.Step(r.Cmd, dt)
		r.Drive.DriveWheels(delta)
	}

	scanned := every(nowTick, w.cfg.SensorEveryTicks)
	if scanned {
		for _, r := range w.robots {
			s := w.sensor.Scan(r.Drive.Pose, w.env, r.Src)
			r.Scan = &s
			r.ScanTick = nowTick
		}
		w.scansTotal += uint64(len(w.robots))
	}
	if every(nowTick, w.cfg.PathEveryTicks) {
		for _, r := range w.robots {
			r.Path = append(r.Path, r.Drive.Pose)
		}
	}

	ops := make([]ControlOp, 0, len(ctrls))
	for _, req := range ctrls {
		err := w.applyControl(nowTick, req.Op)
		if err == nil {
			ops = append(ops, req.Op)
		}
		req.respond(w.tick.Load(), err)
	}

	digest := w.stateDigest(w.tick.Load())
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{Tick: nowTick, Commands: recorded, Controls: ops, Digest: digest})
	}

	w.broadcastSensors(nowTick, scanned)
	w.stepObservers(nowTick, scanned)

	// Snapshot every N ticks, starting after tick 0.
	if w.snapshotSink != nil && w.cfg.SnapshotEveryTicks > 0 {
		cur := w.tick.Load()
		if cur != 0 && cur%uint64(w.cfg.SnapshotEveryTicks) == 0 {
			select {
			case w.snapshotSink <- w.ExportSnapshot():
			default:
				// Drop snapshot if sink is backed up.
			}
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	w.metrics.Store(WorldMetrics{
		Tick:      w.tick.Load(),
		Robots:    len(w.robots),
		Clients:   len(w.clients),
		Observers: len(w.observers),
		QueueDepths: QueueDepths{
			Inbox:   len(w.inbox),
			Control: len(w.control),
			Attach:  len(w.attach),
		},
		StepMS:        stepMS,
		ScansTotal:    w.scansTotal,
		CommandsTotal: w.commandsTotal,
		ResetTotal:    w.resetTotal,
		TeleportTotal: w.teleportTotal,
	})
	return nowTick, digest
}

func (w *World) broadcastSensors(nowTick uint64, scanned bool) {
	if len(w.clients) == 0 {
		return
	}
	stamp := float64(nowTick) * w.cfg.dt()
	for i, cl := range w.clients {
		r := w.robots[i]
		enc := r.Proc.Encoders()
		msg := protocol.SensorMsg{
			Type:            protocol.TypeSensor,
			ProtocolVersion: protocol.Version,
			Tick:            nowTick,
			Robot:           i,
			Stamp:           stamp,
			Encoders:        protocol.Encoders{Left: enc.Left, Right: enc.Right},
		}
		if scanned && r.Scan != nil {
			msg.Scan = scanMsg(r.Scan)
		}
		b, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
	}
}
