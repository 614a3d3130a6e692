package feed

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xggarcia/Curt-IA/internal/workflow"
)

func newTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// Registration happens in the upgrade handler before Dial returns.
	return hub, conn
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub, conn := newTestHub(t)

	sent := workflow.Event{
		ID:        "ev-1",
		RunID:     "run-1",
		Type:      workflow.EventPhaseTransition,
		Phase:     workflow.PhaseRefinement,
		Iteration: 1,
		Message:   "REFINEMENT",
		Time:      time.Now().UTC(),
	}
	hub.Publish(sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got workflow.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.ID != sent.ID || got.Type != sent.Type || got.Phase != sent.Phase {
		t.Errorf("event changed in transit: %+v", got)
	}
}

func TestHubDropsClosedSubscriber(t *testing.T) {
	hub, conn := newTestHub(t)
	if hub.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", hub.Subscribers())
	}

	conn.Close()

	// The next broadcast after close fails the write and evicts.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() > 0 && time.Now().Before(deadline) {
		hub.Publish(workflow.Event{ID: "ping", Type: workflow.EventVote})
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Subscribers() != 0 {
		t.Errorf("closed subscriber not evicted, subscribers = %d", hub.Subscribers())
	}
}
