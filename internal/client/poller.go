package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

const defaultPollInterval = 2 * time.Second

// TaskFetcher is the single call the poller needs from the API client.
type TaskFetcher interface {
	GetTask(ctx context.Context, id string) (*domain.GenerationTask, error)
}

// TaskFailedError is delivered to the error callback when the watched task
// ends in FAILURE or REVOKED. The final task snapshot rides along.
type TaskFailedError struct {
	Task *domain.GenerationTask
}

func (e *TaskFailedError) Error() string {
	if e.Task.ErrorMessage != "" {
		return fmt.Sprintf("task %s ended %s: %s", e.Task.ID, e.Task.Status, e.Task.ErrorMessage)
	}
	return fmt.Sprintf("task %s ended %s", e.Task.ID, e.Task.Status)
}

// TaskPoller polls one task until it reaches a terminal status. Ticks that
// fire while a previous fetch is still in flight are skipped. Exactly one
// terminal callback ever fires: onDone for SUCCESS, onError with a
// *TaskFailedError for FAILURE or REVOKED, or onError with the transport
// error when a fetch fails.
type TaskPoller struct {
	fetcher    TaskFetcher
	taskID     string
	interval   time.Duration
	onProgress func(*domain.GenerationTask)
	onDone     func(*domain.GenerationTask)
	onError    func(error)
	logger     *slog.Logger

	started  atomic.Bool
	inFlight atomic.Bool
	doneOnce sync.Once
	stopOnce sync.Once
	stopped  chan struct{}
}

type TaskPollerOption func(*TaskPoller)

func WithPollInterval(d time.Duration) TaskPollerOption {
	return func(p *TaskPoller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithProgressFunc(fn func(*domain.GenerationTask)) TaskPollerOption {
	return func(p *TaskPoller) { p.onProgress = fn }
}

func WithDoneFunc(fn func(*domain.GenerationTask)) TaskPollerOption {
	return func(p *TaskPoller) { p.onDone = fn }
}

func WithErrorFunc(fn func(error)) TaskPollerOption {
	return func(p *TaskPoller) { p.onError = fn }
}

func NewTaskPoller(fetcher TaskFetcher, taskID string, logger *slog.Logger, opts ...TaskPollerOption) *TaskPoller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &TaskPoller{
		fetcher:  fetcher,
		taskID:   taskID,
		interval: defaultPollInterval,
		logger:   logger,
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start polls until the task is terminal, a fetch fails, Stop is called, or
// ctx is done. The first fetch happens immediately rather than after one
// interval. Only the first call starts a loop.
func (p *TaskPoller) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	go p.loop(ctx)
}

// Stop halts polling. Safe to call multiple times and after the terminal
// snapshot has already been delivered.
func (p *TaskPoller) Stop() {
	p.stopOnce.Do(func() { close(p.stopped) })
}

// Done reports whether the poller has stopped.
func (p *TaskPoller) Done() bool {
	select {
	case <-p.stopped:
		return true
	default:
		return false
	}
}

func (p *TaskPoller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return
		case <-p.stopped:
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *TaskPoller) poll(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer p.inFlight.Store(false)

	task, err := p.fetcher.GetTask(ctx, p.taskID)

	select {
	case <-p.stopped:
		return
	default:
	}

	if ctx.Err() != nil {
		return
	}

	// a transport failure ends the poll; the caller decides whether to
	// start a fresh poller
	if err != nil {
		p.logger.Warn("task poll failed", "task_id", p.taskID, "error", err)
		p.doneOnce.Do(func() {
			if p.onError != nil {
				p.onError(err)
			}
		})
		p.Stop()
		return
	}

	if task.Status.Terminal() {
		p.doneOnce.Do(func() {
			if task.Status == domain.TaskSuccess {
				if p.onDone != nil {
					p.onDone(task)
				}
				return
			}
			if p.onError != nil {
				p.onError(&TaskFailedError{Task: task})
			}
		})
		p.Stop()
		return
	}
	if p.onProgress != nil {
		p.onProgress(task)
	}
}
