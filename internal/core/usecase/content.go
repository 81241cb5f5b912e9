package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/core/ports"
	"github.com/storyreelhq/storyreel/internal/infrastructure/splitter"
)

// ContentUseCase guards the chapter hierarchy. Every paragraph or sentence
// mutation re-checks the parent chapter's confirmation lock server-side, so
// a stale client cannot edit a confirmed chapter.
type ContentUseCase struct {
	chapters   ports.ChapterRepository
	paragraphs ports.ParagraphRepository
	sentences  ports.SentenceRepository
}

func NewContentUseCase(
	chapters ports.ChapterRepository,
	paragraphs ports.ParagraphRepository,
	sentences ports.SentenceRepository,
) *ContentUseCase {
	return &ContentUseCase{
		chapters:   chapters,
		paragraphs: paragraphs,
		sentences:  sentences,
	}
}

func (uc *ContentUseCase) ListChapters(ctx context.Context, projectID string) ([]domain.Chapter, error) {
	return uc.chapters.ListByProject(ctx, projectID)
}

func (uc *ContentUseCase) GetChapter(ctx context.Context, id string) (*domain.Chapter, error) {
	return uc.chapters.GetByID(ctx, id)
}

func (uc *ContentUseCase) UpdateChapter(ctx context.Context, id, title, content string) (*domain.Chapter, error) {
	c, err := uc.chapters.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsConfirmed {
		return nil, domain.WrapError(domain.ErrChapterConfirmed, "update chapter", fmt.Errorf("id=%s", id))
	}
	if strings.TrimSpace(title) != "" {
		c.Title = title
	}
	if content != "" {
		c.Content = content
		c.WordCount = splitter.CountWords(content)
	}
	if err := uc.chapters.Update(ctx, c); err != nil {
		return nil, err
	}
	return uc.chapters.GetByID(ctx, id)
}

// ConfirmChapter applies the one-way lock. Confirming twice is reported as
// success with the current row: the transition happened, the repeat is a
// no-op.
func (uc *ContentUseCase) ConfirmChapter(ctx context.Context, id string) (*domain.Chapter, error) {
	err := uc.chapters.Confirm(ctx, id)
	if err != nil && !domain.IsKind(err, domain.ErrConflict) {
		return nil, err
	}
	c, getErr := uc.chapters.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if err != nil && !c.IsConfirmed {
		// The conflict was not a double confirm after all.
		return nil, err
	}
	return c, nil
}

func (uc *ContentUseCase) DeleteChapter(ctx context.Context, id string) error {
	c, err := uc.chapters.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.IsConfirmed {
		return domain.WrapError(domain.ErrChapterConfirmed, "delete chapter", fmt.Errorf("id=%s", id))
	}
	return uc.chapters.Delete(ctx, id)
}

func (uc *ContentUseCase) ListParagraphs(ctx context.Context, chapterID string) ([]domain.Paragraph, error) {
	return uc.paragraphs.ListByChapter(ctx, chapterID)
}

func (uc *ContentUseCase) CreateParagraph(ctx context.Context, chapterID, content string, orderIndex int) (*domain.Paragraph, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create paragraph", fmt.Errorf("content is required"))
	}
	if err := uc.requireUnconfirmed(ctx, chapterID, "create paragraph"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.Paragraph{
		ID:         uuid.NewString(),
		ChapterID:  chapterID,
		OrderIndex: orderIndex,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.paragraphs.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *ContentUseCase) UpdateParagraph(ctx context.Context, id, content string) (*domain.Paragraph, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update paragraph", fmt.Errorf("content is required"))
	}
	p, err := uc.paragraphs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.requireUnconfirmed(ctx, p.ChapterID, "update paragraph"); err != nil {
		return nil, err
	}
	if err := uc.paragraphs.UpdateContent(ctx, id, content); err != nil {
		return nil, err
	}
	return uc.paragraphs.GetByID(ctx, id)
}

func (uc *ContentUseCase) DeleteParagraph(ctx context.Context, id string) error {
	p, err := uc.paragraphs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.requireUnconfirmed(ctx, p.ChapterID, "delete paragraph"); err != nil {
		return err
	}
	return uc.paragraphs.Delete(ctx, id)
}

func (uc *ContentUseCase) ListSentences(ctx context.Context, paragraphID string) ([]domain.Sentence, error) {
	return uc.sentences.ListByParagraph(ctx, paragraphID)
}

func (uc *ContentUseCase) UpdateSentence(ctx context.Context, id, content string) (*domain.Sentence, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update sentence", fmt.Errorf("content is required"))
	}
	s, err := uc.sentences.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := uc.paragraphs.GetByID(ctx, s.ParagraphID)
	if err != nil {
		return nil, err
	}
	if err := uc.requireUnconfirmed(ctx, p.ChapterID, "update sentence"); err != nil {
		return nil, err
	}
	if err := uc.sentences.UpdateContent(ctx, id, content); err != nil {
		return nil, err
	}
	return uc.sentences.GetByID(ctx, id)
}

func (uc *ContentUseCase) requireUnconfirmed(ctx context.Context, chapterID, operation string) error {
	c, err := uc.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return err
	}
	if c.IsConfirmed {
		return domain.WrapError(domain.ErrChapterConfirmed, operation, fmt.Errorf("chapter=%s", chapterID))
	}
	return nil
}
