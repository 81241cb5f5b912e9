package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/core/ports"
)

// GenerationUseCase validates a generation request, records the task and
// dispatches it to the worker queue. Validation failures never leave a task
// behind: the row is only written once the request is known to be runnable.
type GenerationUseCase struct {
	tasks       ports.TaskRepository
	credentials ports.CredentialRepository
	chapters    ports.ChapterRepository
	queue       ports.MessageQueue
	logger      *slog.Logger
}

func NewGenerationUseCase(
	tasks ports.TaskRepository,
	credentials ports.CredentialRepository,
	chapters ports.ChapterRepository,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *GenerationUseCase {
	return &GenerationUseCase{
		tasks:       tasks,
		credentials: credentials,
		chapters:    chapters,
		queue:       queue,
		logger:      logger,
	}
}

func (uc *GenerationUseCase) StartPrompts(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationTask, error) {
	return uc.start(ctx, domain.TaskPrompts, req)
}

func (uc *GenerationUseCase) StartAudio(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationTask, error) {
	return uc.start(ctx, domain.TaskAudio, req)
}

func (uc *GenerationUseCase) StartImages(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationTask, error) {
	return uc.start(ctx, domain.TaskImages, req)
}

func (uc *GenerationUseCase) start(ctx context.Context, kind domain.TaskKind, req domain.GenerationRequest) (*domain.GenerationTask, error) {
	if req.CredentialID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start generation", fmt.Errorf("credential_id is required"))
	}
	if req.ProjectID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start generation", fmt.Errorf("project_id is required"))
	}
	if req.ChapterID == "" && len(req.SentenceIDs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start generation", fmt.Errorf("chapter_id or sentence_ids is required"))
	}
	if kind == domain.TaskAudio && req.Voice == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start generation", fmt.Errorf("voice is required for audio"))
	}
	if _, err := uc.credentials.GetByID(ctx, req.CredentialID); err != nil {
		return nil, err
	}
	if req.ChapterID != "" {
		if _, err := uc.chapters.GetByID(ctx, req.ChapterID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	task := &domain.GenerationTask{
		ID:           uuid.NewString(),
		ProjectID:    req.ProjectID,
		ChapterID:    req.ChapterID,
		Kind:         kind,
		Status:       domain.TaskPending,
		SentenceIDs:  req.SentenceIDs,
		CredentialID: req.CredentialID,
		Model:        req.Model,
		Voice:        req.Voice,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	if err := uc.queue.PublishTask(ctx, task.ID); err != nil {
		// The row stays PENDING; nothing will pick it up, so fail it now.
		_ = uc.tasks.UpdateStatus(ctx, task.ID, domain.TaskFailure, 0, "", "dispatch failed")
		return nil, fmt.Errorf("publish task %s: %w", task.ID, err)
	}

	uc.logger.Info("generation task dispatched",
		slog.String("task_id", task.ID),
		slog.String("kind", string(kind)),
		slog.String("project_id", req.ProjectID))
	return task, nil
}

// TaskUseCase reads and revokes tasks on behalf of polling clients.
type TaskUseCase struct {
	tasks ports.TaskRepository
}

func NewTaskUseCase(tasks ports.TaskRepository) *TaskUseCase {
	return &TaskUseCase{tasks: tasks}
}

func (uc *TaskUseCase) Get(ctx context.Context, id string) (*domain.GenerationTask, error) {
	return uc.tasks.GetByID(ctx, id)
}

func (uc *TaskUseCase) Revoke(ctx context.Context, id string) error {
	if _, err := uc.tasks.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.tasks.Revoke(ctx, id)
}
