package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/core/ports"
)

type ProjectUseCase struct {
	projects ports.ProjectRepository
}

func NewProjectUseCase(projects ports.ProjectRepository) *ProjectUseCase {
	return &ProjectUseCase{projects: projects}
}

func (uc *ProjectUseCase) Get(ctx context.Context, id string) (*domain.Project, error) {
	return uc.projects.GetByID(ctx, id)
}

// State returns the polling subset: the fields a client shallow-merges into
// its local project while waiting for the pipeline.
func (uc *ProjectUseCase) State(ctx context.Context, id string) (*domain.ProjectState, error) {
	p, err := uc.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ProjectState{
		ID:                 p.ID,
		Status:             p.Status,
		ProcessingProgress: p.ProcessingProgress,
		WordCount:          p.WordCount,
		ChapterCount:       p.ChapterCount,
		ParagraphCount:     p.ParagraphCount,
		SentenceCount:      p.SentenceCount,
		ErrorMessage:       p.ErrorMessage,
		UpdatedAt:          p.UpdatedAt,
	}, nil
}

func (uc *ProjectUseCase) List(ctx context.Context) ([]domain.Project, error) {
	return uc.projects.List(ctx)
}

func (uc *ProjectUseCase) Update(ctx context.Context, id, title, description string) (*domain.Project, error) {
	if strings.TrimSpace(title) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update project", fmt.Errorf("title is required"))
	}
	p, err := uc.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Title = title
	p.Description = description
	if err := uc.projects.Update(ctx, p); err != nil {
		return nil, err
	}
	return uc.projects.GetByID(ctx, id)
}

// Archive is terminal: pollers stop on it and the project drops out of the
// active list. It does not delete any stored assets.
func (uc *ProjectUseCase) Archive(ctx context.Context, id string) error {
	p, err := uc.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Status == domain.ProjectArchived {
		return nil
	}
	return uc.projects.UpdateStatus(ctx, id, domain.ProjectArchived, p.ProcessingProgress, "")
}

func (uc *ProjectUseCase) Delete(ctx context.Context, id string) error {
	return uc.projects.Delete(ctx, id)
}
