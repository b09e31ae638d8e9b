package ports

import "time"

// Run event types, in the order a run emits them
const (
	EventRunStarted   = "run_started"
	EventModeStarted  = "mode_started"
	EventProgress     = "progress"
	EventModeFinished = "mode_finished"
	EventRunFinished  = "run_finished"
	EventRunFailed    = "run_failed"
)

// RunEvent is a progress notification published while a run executes
type RunEvent struct {
	RunID     string                 `json:"run_id"`
	EventType string                 `json:"event_type"`
	Mode      string                 `json:"mode,omitempty"`
	Done      int                    `json:"done"`
	Total     int                    `json:"total"`
	Progress  float64                `json:"progress"` // 0.0 - 100.0 across the whole run
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventSink receives run events. Publish must not block the caller.
type EventSink interface {
	Publish(event RunEvent)
}
