package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/infrastructure/resilience"
)

// Queue dispatches generation-task ids to the worker pool. One subject, one
// queue group: each task id is delivered to exactly one worker.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("storyreel"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishTask(ctx context.Context, taskID string) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, []byte(taskID)); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return markTemporary(err)
	}
	return nil
}

func (q *Queue) SubscribeTasks(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, "workers", func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, string(msg.Data)); err != nil {
			slog.Error("task_handler_error", "task_id", string(msg.Data), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// ProgressNotifier lets the worker push task snapshots without holding a
// direct reference to connected sockets.
type ProgressNotifier struct {
	Queue *Queue
}

func (n *ProgressNotifier) TaskProgress(task *domain.GenerationTask) {
	if err := n.Queue.PublishProgress(context.Background(), task); err != nil {
		slog.Warn("progress_publish_error", "task_id", task.ID, "error", err)
	}
}

func (q *Queue) progressSubject() string {
	return q.subject + ".progress"
}

// PublishProgress broadcasts a task snapshot. Unlike task dispatch this is
// fan-out: every API instance relays it to its connected sockets. Best-effort,
// a dropped snapshot is recovered by the next poll.
func (q *Queue) PublishProgress(_ context.Context, task *domain.GenerationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task progress: %w", err)
	}
	if err := q.conn.Publish(q.progressSubject(), payload); err != nil {
		return markTemporary(fmt.Errorf("nats publish progress: %w", err))
	}
	return nil
}

func (q *Queue) SubscribeProgress(ctx context.Context, handler func(context.Context, *domain.GenerationTask)) error {
	sub, err := q.conn.Subscribe(q.progressSubject(), func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		var task domain.GenerationTask
		if err := json.Unmarshal(msg.Data, &task); err != nil {
			slog.Error("progress_decode_error", "error", err)
			return
		}
		handler(ctx, &task)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe progress: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain progress subscription: %w", err)
	}
	return nil
}
