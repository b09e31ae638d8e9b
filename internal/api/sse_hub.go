package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"martisim/internal"
	"martisim/ports"
)

// clientBuffer is the number of events queued per client before drops
const clientBuffer = 64

// SSEHub fans run events out to Server-Sent Events clients, keyed by run ID
type SSEHub struct {
	clients   map[string]map[chan ports.RunEvent]bool
	clientsMu sync.RWMutex
	keepAlive time.Duration
	logger    *internal.Logger
}

// NewSSEHub creates a new SSE hub
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SSEHub{
		clients:   make(map[string]map[chan ports.RunEvent]bool),
		keepAlive: 30 * time.Second,
		logger:    logger,
	}
}

// Subscribe registers a client for a run. The returned function unregisters
// it and closes the channel.
func (h *SSEHub) Subscribe(runID string) (<-chan ports.RunEvent, func()) {
	ch := make(chan ports.RunEvent, clientBuffer)

	h.clientsMu.Lock()
	if h.clients[runID] == nil {
		h.clients[runID] = make(map[chan ports.RunEvent]bool)
	}
	h.clients[runID][ch] = true
	h.logger.Debug("[SSE] client registered for run %s (total clients: %d)", runID, len(h.clients[runID]))
	h.clientsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.clientsMu.Lock()
			defer h.clientsMu.Unlock()
			if clients, exists := h.clients[runID]; exists {
				delete(clients, ch)
				if len(clients) == 0 {
					delete(h.clients, runID)
				}
			}
			close(ch)
		})
	}
}

// Publish sends an event to every client of its run without blocking.
// Clients whose buffer is full miss the event.
func (h *SSEHub) Publish(event ports.RunEvent) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for clientChan := range h.clients[event.RunID] {
		select {
		case clientChan <- event:
		default:
			h.logger.Warn("[SSE] client channel full for run %s, skipping %s event", event.RunID, event.EventType)
		}
	}
}

// StreamUntil writes already-known events first, then live ones. Used when
// the caller subscribed before checking the run state.
func (h *SSEHub) StreamUntil(c *gin.Context, initial []ports.RunEvent, events <-chan ports.RunEvent) {
	setSSEHeaders(c)
	for _, ev := range initial {
		if !h.writeEvent(c, ev) {
			return
		}
	}
	h.stream(c, events)
}

func (h *SSEHub) stream(c *gin.Context, events <-chan ports.RunEvent) {
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			return h.writeEvent(c, event)

		case <-time.After(h.keepAlive):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// writeEvent sends one event and reports whether the stream should continue
func (h *SSEHub) writeEvent(c *gin.Context, event ports.RunEvent) bool {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("[SSE] failed to marshal event: %v", err)
		return true
	}
	c.SSEvent("run", string(eventJSON))
	c.Writer.Flush()
	return !IsTerminal(event)
}

// IsTerminal reports whether no further events follow ev for its run
func IsTerminal(ev ports.RunEvent) bool {
	return ev.EventType == ports.EventRunFinished || ev.EventType == ports.EventRunFailed
}

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Cache-Control")
}

// GetActiveRuns returns runs with active SSE clients
func (h *SSEHub) GetActiveRuns() []string {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	runs := make([]string, 0, len(h.clients))
	for runID := range h.clients {
		runs = append(runs, runID)
	}
	return runs
}

// GetClientCount returns the number of active clients for a run
func (h *SSEHub) GetClientCount(runID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	if clients, exists := h.clients[runID]; exists {
		return len(clients)
	}
	return 0
}
