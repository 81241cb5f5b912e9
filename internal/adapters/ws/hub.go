package ws

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/core/ports"
)

const (
	writeTimeout  = 10 * time.Second
	pingInterval  = 30 * time.Second
	sendQueueSize = 16
)

// Hub fans task-progress snapshots out to WebSocket subscribers. One socket
// subscribes to exactly one task; the connection closes after the terminal
// snapshot is delivered, which mirrors how the poller stops.
type Hub struct {
	tasks    ports.TaskService
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu          sync.Mutex
	subscribers map[string]map[*subscriber]struct{}
}

type subscriber struct {
	send chan *domain.GenerationTask
}

func NewHub(tasks ports.TaskService, logger *slog.Logger) *Hub {
	return &Hub{
		tasks: tasks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:      logger,
		subscribers: map[string]map[*subscriber]struct{}{},
	}
}

// TaskProgress delivers a snapshot to every socket watching the task.
// Slow consumers are skipped; the next snapshot or a poll catches them up.
func (h *Hub) TaskProgress(task *domain.GenerationTask) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers[task.ID] {
		select {
		case sub.send <- task:
		default:
		}
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	if taskID == "" {
		http.Error(w, "task id is required", http.StatusBadRequest)
		return
	}

	// Snapshot before upgrading so an unknown task is a clean 404.
	task, err := h.tasks.Get(r.Context(), taskID)
	if err != nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("task_id", taskID), slog.Any("error", err))
		return
	}

	sub := &subscriber{send: make(chan *domain.GenerationTask, sendQueueSize)}
	h.register(taskID, sub)
	defer h.unregister(taskID, sub)

	// Reader goroutine: we only care about the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.writeLoop(conn, sub, task, done)
	_ = conn.Close()
}

func (h *Hub) writeLoop(conn *websocket.Conn, sub *subscriber, initial *domain.GenerationTask, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	if !h.writeSnapshot(conn, initial) || initial.Status.Terminal() {
		return
	}

	for {
		select {
		case task := <-sub.send:
			if !h.writeSnapshot(conn, task) {
				return
			}
			if task.Status.Terminal() {
				deadline := time.Now().Add(writeTimeout)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(task.Status)), deadline)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) writeSnapshot(conn *websocket.Conn, task *domain.GenerationTask) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(task); err != nil {
		return false
	}
	return true
}

func (h *Hub) register(taskID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[taskID] == nil {
		h.subscribers[taskID] = map[*subscriber]struct{}{}
	}
	h.subscribers[taskID][sub] = struct{}{}
}

func (h *Hub) unregister(taskID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[taskID], sub)
	if len(h.subscribers[taskID]) == 0 {
		delete(h.subscribers, taskID)
	}
}
