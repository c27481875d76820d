package main

import (
	"fmt"
	"net/http"

	"multisim.dev/internal/persistence/indexdb"
	"multisim.dev/internal/sim/world"
)

// metricsHandler writes a minimal Prometheus exposition.
func metricsHandler(w *world.World, runID string, idx *indexdb.SQLiteIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := w.Metrics()
		tick := w.CurrentTick()
		if m.Tick != 0 {
			tick = m.Tick
		}

		fmt.Fprintf(rw, "# HELP multisim_tick Current simulation tick.\n")
		fmt.Fprintf(rw, "# TYPE multisim_tick gauge\n")
		fmt.Fprintf(rw, "multisim_tick{run=%q} %d\n", runID, tick)

		fmt.Fprintf(rw, "# HELP multisim_robots Number of simulated robots.\n")
		fmt.Fprintf(rw, "# TYPE multisim_robots gauge\n")
		fmt.Fprintf(rw, "multisim_robots{run=%q} %d\n", runID, m.Robots)

		fmt.Fprintf(rw, "# HELP multisim_clients Robots with an attached client session.\n")
		fmt.Fprintf(rw, "# TYPE multisim_clients gauge\n")
		fmt.Fprintf(rw, "multisim_clients{run=%q} %d\n", runID, m.Clients)

		fmt.Fprintf(rw, "# HELP multisim_observers Connected observers.\n")
		fmt.Fprintf(rw, "# TYPE multisim_observers gauge\n")
		fmt.Fprintf(rw, "multisim_observers{run=%q} %d\n", runID, m.Observers)

		fmt.Fprintf(rw, "# HELP multisim_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE multisim_queue_depth gauge\n")
		fmt.Fprintf(rw, "multisim_queue_depth{run=%q,queue=%q} %d\n", runID, "inbox", m.QueueDepths.Inbox)
		fmt.Fprintf(rw, "multisim_queue_depth{run=%q,queue=%q} %d\n", runID, "control", m.QueueDepths.Control)
		fmt.Fprintf(rw, "multisim_queue_depth{run=%q,queue=%q} %d\n", runID, "attach", m.QueueDepths.Attach)

		fmt.Fprintf(rw, "# HELP multisim_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE multisim_step_ms gauge\n")
		fmt.Fprintf(rw, "multisim_step_ms{run=%q} %.3f\n", runID, m.StepMS)

		fmt.Fprintf(rw, "# HELP multisim_scans_total Range scans produced.\n")
		fmt.Fprintf(rw, "# TYPE multisim_scans_total counter\n")
		fmt.Fprintf(rw, "multisim_scans_total{run=%q} %d\n", runID, m.ScansTotal)

		fmt.Fprintf(rw, "# HELP multisim_commands_total Motor commands applied.\n")
		fmt.Fprintf(rw, "# TYPE multisim_commands_total counter\n")
		fmt.Fprintf(rw, "multisim_commands_total{run=%q} %d\n", runID, m.CommandsTotal)

		fmt.Fprintf(rw, "# HELP multisim_controls_total Control operations applied.\n")
		fmt.Fprintf(rw, "# TYPE multisim_controls_total counter\n")
		fmt.Fprintf(rw, "multisim_controls_total{run=%q,op=%q} %d\n", runID, "reset", m.ResetTotal)
		fmt.Fprintf(rw, "multisim_controls_total{run=%q,op=%q} %d\n", runID, "teleport", m.TeleportTotal)

		if idx == nil {
			return
		}
		st := idx.Stats()
		fmt.Fprintf(rw, "# HELP multisim_index_queue_depth SQLite index writer backlog.\n")
		fmt.Fprintf(rw, "# TYPE multisim_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "multisim_index_queue_depth{run=%q} %d\n", runID, st.QueueDepth)
		fmt.Fprintf(rw, "# HELP multisim_index_dropped_total Index writes dropped under backpressure.\n")
		fmt.Fprintf(rw, "# TYPE multisim_index_dropped_total counter\n")
		fmt.Fprintf(rw, "multisim_index_dropped_total{run=%q,kind=%q} %d\n", runID, "tick", st.DropTickTotal)
		fmt.Fprintf(rw, "multisim_index_dropped_total{run=%q,kind=%q} %d\n", runID, "audit", st.DropAuditTotal)
		fmt.Fprintf(rw, "multisim_index_dropped_total{run=%q,kind=%q} %d\n", runID, "snapshot", st.DropSnapshotTotal)
	}
}
