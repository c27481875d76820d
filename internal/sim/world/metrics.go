package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Robots    int `json:"robots"`
	Clients   int `json:"clients"`
	Observers int `json:"observers"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	ScansTotal    uint64 `json:"scans_total"`
	CommandsTotal uint64 `json:"commands_total"`
	ResetTotal    uint64 `json:"reset_total"`
	TeleportTotal uint64 `json:"teleport_total"`
}

type QueueDepths struct {
	Inbox   int `json:"inbox"`
	Control int `json:"control"`
	Attach  int `json:"attach"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
