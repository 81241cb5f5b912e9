package client

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

type projectFetcherFake struct {
	mu     sync.Mutex
	states map[string]*domain.ProjectState
	seen   []string
}

func (f *projectFetcherFake) ProjectStatus(ctx context.Context, id string) (*domain.ProjectState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, id)
	state, ok := f.states[id]
	if !ok {
		state = &domain.ProjectState{ID: id, Status: domain.ProjectParsing, ProcessingProgress: 40}
	}
	snapshot := *state
	return &snapshot, nil
}

func (f *projectFetcherFake) polledIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

func TestProjectWatcherDeliversStates(t *testing.T) {
	fetcher := &projectFetcherFake{states: map[string]*domain.ProjectState{}}

	var mu sync.Mutex
	var got []*domain.ProjectState
	w := NewProjectWatcher(fetcher, 5*time.Millisecond, func(s *domain.ProjectState) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}, slog.New(slog.DiscardHandler))

	w.Watch(context.Background(), "p1")
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 2
	})
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	if got[0].ID != "p1" || got[0].Status != domain.ProjectParsing {
		t.Fatalf("unexpected first state: %+v", got[0])
	}
}

func TestProjectWatcherStopsOnTerminalStatus(t *testing.T) {
	fetcher := &projectFetcherFake{states: map[string]*domain.ProjectState{
		"p1": {ID: "p1", Status: domain.ProjectCompleted, ProcessingProgress: 100},
	}}

	var mu sync.Mutex
	var got []*domain.ProjectState
	w := NewProjectWatcher(fetcher, 5*time.Millisecond, func(s *domain.ProjectState) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}, slog.New(slog.DiscardHandler))

	w.Watch(context.Background(), "p1")
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 1
	})

	// loop exits on its own; no further polls accumulate
	time.Sleep(30 * time.Millisecond)
	polls := len(fetcher.polledIDs())
	time.Sleep(30 * time.Millisecond)
	if len(fetcher.polledIDs()) != polls {
		t.Fatal("watcher kept polling after terminal status")
	}
	w.Stop()
}

func TestProjectWatcherSwitchTearsDownOldLoop(t *testing.T) {
	fetcher := &projectFetcherFake{states: map[string]*domain.ProjectState{}}
	w := NewProjectWatcher(fetcher, 5*time.Millisecond, nil, slog.New(slog.DiscardHandler))

	w.Watch(context.Background(), "p1")
	waitFor(t, time.Second, func() bool { return len(fetcher.polledIDs()) >= 1 })

	w.Watch(context.Background(), "p2")
	waitFor(t, time.Second, func() bool {
		for _, id := range fetcher.polledIDs() {
			if id == "p2" {
				return true
			}
		}
		return false
	})
	// allow a few more intervals, then verify p1 is gone from the tail
	time.Sleep(30 * time.Millisecond)
	ids := fetcher.polledIDs()
	tail := ids
	if len(ids) > 3 {
		tail = ids[len(ids)-3:]
	}
	for _, id := range tail {
		if id == "p1" {
			t.Fatalf("old project still polled after switch: %v", ids)
		}
	}
	w.Stop()
}

func TestProjectWatcherSameIDIsNoop(t *testing.T) {
	fetcher := &projectFetcherFake{states: map[string]*domain.ProjectState{}}
	w := NewProjectWatcher(fetcher, 50*time.Millisecond, nil, slog.New(slog.DiscardHandler))
	defer w.Stop()

	w.Watch(context.Background(), "p1")
	waitFor(t, time.Second, func() bool { return len(fetcher.polledIDs()) == 1 })

	// re-watching the same id must not restart the loop with a fresh
	// immediate poll
	w.Watch(context.Background(), "p1")
	time.Sleep(10 * time.Millisecond)
	if got := len(fetcher.polledIDs()); got != 1 {
		t.Fatalf("expected 1 poll, got %d", got)
	}
}
