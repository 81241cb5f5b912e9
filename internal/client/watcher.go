package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

const defaultWatchInterval = 3 * time.Second

// ProjectFetcher is the single call the watcher needs from the API client.
type ProjectFetcher interface {
	ProjectStatus(ctx context.Context, id string) (*domain.ProjectState, error)
}

// ProjectWatcher polls the lightweight status of one project at a time.
// Switching to a different project tears down the current loop and starts a
// fresh one, so a late response for the old project never reaches the
// callback.
type ProjectWatcher struct {
	fetcher  ProjectFetcher
	interval time.Duration
	onState  func(*domain.ProjectState)
	logger   *slog.Logger

	mu        sync.Mutex
	projectID string
	cancel    context.CancelFunc
	loopDone  chan struct{}
}

func NewProjectWatcher(fetcher ProjectFetcher, interval time.Duration, onState func(*domain.ProjectState), logger *slog.Logger) *ProjectWatcher {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectWatcher{
		fetcher:  fetcher,
		interval: interval,
		onState:  onState,
		logger:   logger,
	}
}

// Watch starts polling projectID. A repeated call with the same id is a
// no-op; a different id restarts the loop.
func (w *ProjectWatcher) Watch(ctx context.Context, projectID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.projectID == projectID && w.cancel != nil {
		return
	}
	w.stopLocked()

	if projectID == "" {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.projectID = projectID
	w.cancel = cancel
	w.loopDone = done

	go w.loop(loopCtx, projectID, done)
}

// Stop halts the current loop and waits for it to exit.
func (w *ProjectWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *ProjectWatcher) stopLocked() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.loopDone
	w.cancel = nil
	w.loopDone = nil
	w.projectID = ""
}

func (w *ProjectWatcher) loop(ctx context.Context, projectID string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if w.poll(ctx, projectID) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.poll(ctx, projectID) {
				return
			}
		}
	}
}

// poll fetches one snapshot and reports whether the loop should stop.
func (w *ProjectWatcher) poll(ctx context.Context, projectID string) bool {
	state, err := w.fetcher.ProjectStatus(ctx, projectID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		w.logger.Warn("project poll failed", "project_id", projectID, "error", err)
		return false
	}
	if ctx.Err() != nil {
		return true
	}
	if w.onState != nil {
		w.onState(state)
	}
	return state.Status.Terminal()
}
