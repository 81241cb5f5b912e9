package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/core/ports"
)

// IngestProjectUseCase accepts an uploaded source document, records the
// project and hands parsing off to the worker pool.
type IngestProjectUseCase struct {
	projects ports.ProjectRepository
	tasks    ports.TaskRepository
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
}

func NewIngestProjectUseCase(
	projects ports.ProjectRepository,
	tasks ports.TaskRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestProjectUseCase {
	return &IngestProjectUseCase{
		projects: projects,
		tasks:    tasks,
		storage:  storage,
		queue:    queue,
	}
}

func (uc *IngestProjectUseCase) Upload(
	ctx context.Context,
	title, description, filename, mimeType string,
	body io.Reader,
) (*domain.Project, *domain.GenerationTask, error) {
	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	if strings.TrimSpace(title) == "" {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("title is required"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("sources/%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, nil, fmt.Errorf("save source document: %w", err)
	}

	project := &domain.Project{
		ID:          id,
		Title:       title,
		Description: description,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Status:      domain.ProjectUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.projects.Create(ctx, project); err != nil {
		return nil, nil, fmt.Errorf("create project: %w", err)
	}

	task := &domain.GenerationTask{
		ID:        uuid.NewString(),
		ProjectID: project.ID,
		Kind:      domain.TaskParse,
		Status:    domain.TaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.tasks.Create(ctx, task); err != nil {
		return nil, nil, fmt.Errorf("create parse task: %w", err)
	}

	if err := uc.queue.PublishTask(ctx, task.ID); err != nil {
		// The row stays PENDING; nothing will pick it up, so fail it now.
		_ = uc.tasks.UpdateStatus(ctx, task.ID, domain.TaskFailure, 0, "", "dispatch failed")
		return nil, nil, fmt.Errorf("publish parse task: %w", err)
	}

	return project, task, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
