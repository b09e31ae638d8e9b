package api

import (
	"martisim/internal"
	"martisim/ports"
)

// EventFanout forwards every run event to several sinks in order
type EventFanout struct {
	sinks []ports.EventSink
}

// NewEventFanout creates a sink publishing to each non-nil sink
func NewEventFanout(sinks ...ports.EventSink) *EventFanout {
	f := &EventFanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Publish sends event to every sink
func (f *EventFanout) Publish(event ports.RunEvent) {
	for _, s := range f.sinks {
		s.Publish(event)
	}
}

// EventLogger writes run events to a logger: progress at debug level,
// everything else at info
type EventLogger struct {
	logger *internal.Logger
}

// NewEventLogger creates a sink logging to logger
func NewEventLogger(logger *internal.Logger) *EventLogger {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &EventLogger{logger: logger}
}

// Publish logs event
func (l *EventLogger) Publish(event ports.RunEvent) {
	log := l.logger.With("run_id", event.RunID)
	switch event.EventType {
	case ports.EventProgress:
		log.Debug("%s: %d/%d trials (%.0f%%)", event.Mode, event.Done, event.Total, event.Progress)
	case ports.EventRunFailed:
		log.Warn("%s: %v", event.EventType, event.Data["error"])
	case ports.EventModeStarted, ports.EventModeFinished:
		log.Info("%s %s (%.0f%%)", event.EventType, event.Mode, event.Progress)
	default:
		log.Info("%s (%.0f%%)", event.EventType, event.Progress)
	}
}
