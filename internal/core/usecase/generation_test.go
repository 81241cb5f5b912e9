package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func seedCredential(t *testing.T, creds *credentialRepoFake, id string) {
	t.Helper()
	err := creds.Create(context.Background(), &domain.Credential{
		ID:       id,
		Name:     "default",
		Provider: "openai",
		APIKey:   "sk-test-1234",
	})
	if err != nil {
		t.Fatalf("seed credential: %v", err)
	}
}

func TestStartGenerationRequiresCredential(t *testing.T) {
	tasks := newTaskRepoFake()
	uc := NewGenerationUseCase(tasks, newCredentialRepoFake(), newChapterRepoFake(), &queueFake{}, discardLogger())

	_, err := uc.StartPrompts(context.Background(), domain.GenerationRequest{
		ProjectID: "p-1",
		ChapterID: "ch-1",
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(tasks.items) != 0 {
		t.Fatalf("expected no task rows after validation failure, got %d", len(tasks.items))
	}
}

func TestStartAudioRequiresVoice(t *testing.T) {
	creds := newCredentialRepoFake()
	seedCredential(t, creds, "cred-1")
	uc := NewGenerationUseCase(newTaskRepoFake(), creds, newChapterRepoFake(), &queueFake{}, discardLogger())

	_, err := uc.StartAudio(context.Background(), domain.GenerationRequest{
		ProjectID:    "p-1",
		ChapterID:    "ch-1",
		CredentialID: "cred-1",
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStartGenerationDispatchesTask(t *testing.T) {
	tasks := newTaskRepoFake()
	creds := newCredentialRepoFake()
	chapters := newChapterRepoFake()
	queue := &queueFake{}
	seedCredential(t, creds, "cred-1")
	seedChapter(t, chapters, "ch-1", false)
	uc := NewGenerationUseCase(tasks, creds, chapters, queue, discardLogger())

	task, err := uc.StartImages(context.Background(), domain.GenerationRequest{
		ProjectID:    "p-1",
		ChapterID:    "ch-1",
		CredentialID: "cred-1",
		Model:        "dall-e-3",
	})
	if err != nil {
		t.Fatalf("StartImages() error = %v", err)
	}
	if task.Kind != domain.TaskImages || task.Status != domain.TaskPending {
		t.Fatalf("task = %s/%s, want images/PENDING", task.Kind, task.Status)
	}
	if len(queue.published) != 1 || queue.published[0] != task.ID {
		t.Fatalf("published = %v, want [%s]", queue.published, task.ID)
	}
}

func TestStartGenerationFailsTaskWhenDispatchFails(t *testing.T) {
	tasks := newTaskRepoFake()
	creds := newCredentialRepoFake()
	seedCredential(t, creds, "cred-1")
	uc := NewGenerationUseCase(tasks, creds, newChapterRepoFake(), &queueFake{err: errors.New("nats down")}, discardLogger())

	_, err := uc.StartPrompts(context.Background(), domain.GenerationRequest{
		ProjectID:    "p-1",
		SentenceIDs:  []string{"sen-1"},
		CredentialID: "cred-1",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, task := range tasks.items {
		if task.Status != domain.TaskFailure {
			t.Fatalf("orphaned task status = %s, want FAILURE", task.Status)
		}
	}
}

func TestRevokeOnlyPendingTasks(t *testing.T) {
	tasks := newTaskRepoFake()
	_ = tasks.Create(context.Background(), &domain.GenerationTask{ID: "t-1", Status: domain.TaskPending})
	_ = tasks.Create(context.Background(), &domain.GenerationTask{ID: "t-2", Status: domain.TaskProcessing})
	uc := NewTaskUseCase(tasks)

	if err := uc.Revoke(context.Background(), "t-1"); err != nil {
		t.Fatalf("Revoke(pending) error = %v", err)
	}
	if err := uc.Revoke(context.Background(), "t-2"); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("Revoke(processing) = %v, want ErrConflict", err)
	}
	if err := uc.Revoke(context.Background(), "missing"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("Revoke(missing) = %v, want ErrNotFound", err)
	}
}
