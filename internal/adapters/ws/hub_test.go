package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

type taskServiceFake struct {
	task *domain.GenerationTask
}

func (f *taskServiceFake) Get(_ context.Context, id string) (*domain.GenerationTask, error) {
	if f.task == nil || f.task.ID != id {
		return nil, fmt.Errorf("no task %s", id)
	}
	out := *f.task
	return &out, nil
}

func (f *taskServiceFake) Revoke(context.Context, string) error { return nil }

func dialHub(t *testing.T, hub *Hub, taskID string) (*websocket.Conn, func()) {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/ws/tasks/{id}", hub)
	server := httptest.NewServer(mux)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws/tasks/" + taskID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) domain.GenerationTask {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var task domain.GenerationTask
	if err := conn.ReadJSON(&task); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	return task
}

func TestHubSendsInitialSnapshotThenProgress(t *testing.T) {
	tasks := &taskServiceFake{task: &domain.GenerationTask{ID: "t-1", Status: domain.TaskProcessing, Progress: 10}}
	hub := NewHub(tasks, slog.New(slog.DiscardHandler))

	conn, done := dialHub(t, hub, "t-1")
	defer done()

	first := readSnapshot(t, conn)
	if first.Progress != 10 {
		t.Fatalf("initial progress = %d, want 10", first.Progress)
	}

	// The write loop registers before reading; give it a beat.
	waitForSubscriber(t, hub, "t-1")
	hub.TaskProgress(&domain.GenerationTask{ID: "t-1", Status: domain.TaskProcessing, Progress: 60})

	second := readSnapshot(t, conn)
	if second.Progress != 60 {
		t.Fatalf("pushed progress = %d, want 60", second.Progress)
	}
}

func TestHubClosesAfterTerminalSnapshot(t *testing.T) {
	tasks := &taskServiceFake{task: &domain.GenerationTask{ID: "t-1", Status: domain.TaskProcessing, Progress: 90}}
	hub := NewHub(tasks, slog.New(slog.DiscardHandler))

	conn, done := dialHub(t, hub, "t-1")
	defer done()

	_ = readSnapshot(t, conn)
	waitForSubscriber(t, hub, "t-1")
	hub.TaskProgress(&domain.GenerationTask{ID: "t-1", Status: domain.TaskSuccess, Progress: 100})

	terminal := readSnapshot(t, conn)
	if terminal.Status != domain.TaskSuccess {
		t.Fatalf("terminal status = %s, want SUCCESS", terminal.Status)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close after terminal snapshot")
	}
}

func TestHubRejectsUnknownTask(t *testing.T) {
	hub := NewHub(&taskServiceFake{}, slog.New(slog.DiscardHandler))
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/ws/tasks/{id}", hub)
	server := httptest.NewServer(mux)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws/tasks/missing"
	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial failure for unknown task")
	}
	if res == nil || res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", res)
	}
}

func waitForSubscriber(t *testing.T, hub *Hub, taskID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.Lock()
		n := len(hub.subscribers[taskID])
		hub.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no subscriber registered for %s", taskID)
}
