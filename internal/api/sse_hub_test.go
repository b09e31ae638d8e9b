package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martisim/internal"
	"martisim/internal/testkit"
	"martisim/ports"
)

func event(runID, eventType string) ports.RunEvent {
	return ports.RunEvent{RunID: runID, EventType: eventType, Timestamp: time.Now()}
}

func TestSSEHub_SubscribePublish(t *testing.T) {
	hub := NewSSEHub(internal.NewNopLogger())

	a, unsubA := hub.Subscribe("run-a")
	b, unsubB := hub.Subscribe("run-b")
	defer unsubB()

	assert.Equal(t, 1, hub.GetClientCount("run-a"))
	assert.ElementsMatch(t, []string{"run-a", "run-b"}, hub.GetActiveRuns())

	hub.Publish(event("run-a", ports.EventProgress))

	select {
	case got := <-a:
		assert.Equal(t, ports.EventProgress, got.EventType)
	case <-time.After(time.Second):
		t.Fatal("subscriber of run-a got nothing")
	}
	assert.Empty(t, b, "events stay with their run")

	unsubA()
	unsubA()
	_, open := <-a
	assert.False(t, open, "unsubscribe closes the channel")
	assert.Zero(t, hub.GetClientCount("run-a"))
	assert.Equal(t, []string{"run-b"}, hub.GetActiveRuns())
}

func TestSSEHub_PublishNeverBlocks(t *testing.T) {
	hub := NewSSEHub(internal.NewNopLogger())
	ch, unsubscribe := hub.Subscribe("slow")
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer*2; i++ {
			hub.Publish(event("slow", ports.EventProgress))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full client")
	}
	assert.Len(t, ch, clientBuffer)
}

func TestSSEHub_StreamUntilTerminal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewSSEHub(internal.NewNopLogger())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/events", nil)

	initial := []ports.RunEvent{
		event("r", ports.EventProgress),
		event("r", ports.EventRunFinished),
		event("r", ports.EventProgress),
	}
	hub.StreamUntil(c, initial, nil)

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"), w.Header().Get("Content-Type"))
	assert.Equal(t, 2, strings.Count(body, "event:run"), "nothing is written after the terminal event")
	assert.Contains(t, body, `"event_type":"run_finished"`)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(event("r", ports.EventRunFinished)))
	assert.True(t, IsTerminal(event("r", ports.EventRunFailed)))
	assert.False(t, IsTerminal(event("r", ports.EventModeFinished)))
}

func TestEventFanout(t *testing.T) {
	first, second := &testkit.EventRecorder{}, &testkit.EventRecorder{}
	fanout := NewEventFanout(first, nil, second, NewEventLogger(internal.NewNopLogger()))

	fanout.Publish(event("r", ports.EventRunStarted))
	fanout.Publish(event("r", ports.EventRunFailed))

	require.Equal(t, []string{ports.EventRunStarted, ports.EventRunFailed}, first.Types())
	assert.Equal(t, first.Events(), second.Events())
}
