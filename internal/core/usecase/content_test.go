package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

func seedChapter(t *testing.T, chapters *chapterRepoFake, id string, confirmed bool) {
	t.Helper()
	status := domain.ChapterReady
	if confirmed {
		status = domain.ChapterConfirmed
	}
	err := chapters.Create(context.Background(), &domain.Chapter{
		ID:            id,
		ProjectID:     "p-1",
		ChapterNumber: 1,
		Title:         "One",
		Content:       "Some text.",
		Status:        status,
		IsConfirmed:   confirmed,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("seed chapter: %v", err)
	}
}

func TestConfirmChapterLocksAndIsIdempotent(t *testing.T) {
	chapters := newChapterRepoFake()
	seedChapter(t, chapters, "ch-1", false)
	uc := NewContentUseCase(chapters, newParagraphRepoFake(), newSentenceRepoFake())

	c, err := uc.ConfirmChapter(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("ConfirmChapter() error = %v", err)
	}
	if !c.IsConfirmed || c.Status != domain.ChapterConfirmed {
		t.Fatalf("chapter not locked: %+v", c)
	}

	// A repeated confirm reports the already-locked row, not an error.
	again, err := uc.ConfirmChapter(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("second ConfirmChapter() error = %v", err)
	}
	if !again.IsConfirmed {
		t.Fatalf("expected chapter to stay confirmed")
	}
}

func TestUpdateChapterRejectedWhenConfirmed(t *testing.T) {
	chapters := newChapterRepoFake()
	seedChapter(t, chapters, "ch-1", true)
	uc := NewContentUseCase(chapters, newParagraphRepoFake(), newSentenceRepoFake())

	_, err := uc.UpdateChapter(context.Background(), "ch-1", "New title", "new text")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrChapterConfirmed) {
		t.Fatalf("expected ErrChapterConfirmed, got %v", err)
	}
}

func TestParagraphMutationsGuardedByChapterLock(t *testing.T) {
	chapters := newChapterRepoFake()
	paragraphs := newParagraphRepoFake()
	seedChapter(t, chapters, "ch-locked", true)
	seedChapter(t, chapters, "ch-open", false)
	if err := paragraphs.Create(context.Background(), &domain.Paragraph{ID: "par-1", ChapterID: "ch-locked", OrderIndex: 1, Content: "old"}); err != nil {
		t.Fatalf("seed paragraph: %v", err)
	}
	uc := NewContentUseCase(chapters, paragraphs, newSentenceRepoFake())

	if _, err := uc.CreateParagraph(context.Background(), "ch-locked", "text", 2); !domain.IsKind(err, domain.ErrChapterConfirmed) {
		t.Fatalf("create in locked chapter: got %v", err)
	}
	if _, err := uc.UpdateParagraph(context.Background(), "par-1", "changed"); !domain.IsKind(err, domain.ErrChapterConfirmed) {
		t.Fatalf("update in locked chapter: got %v", err)
	}
	if err := uc.DeleteParagraph(context.Background(), "par-1"); !domain.IsKind(err, domain.ErrChapterConfirmed) {
		t.Fatalf("delete in locked chapter: got %v", err)
	}

	p, err := uc.CreateParagraph(context.Background(), "ch-open", "new paragraph", 1)
	if err != nil {
		t.Fatalf("CreateParagraph() error = %v", err)
	}
	if p.OrderIndex != 1 || p.Content != "new paragraph" {
		t.Fatalf("unexpected paragraph %+v", p)
	}
}

func TestUpdateSentenceTraversesHierarchyGuard(t *testing.T) {
	chapters := newChapterRepoFake()
	paragraphs := newParagraphRepoFake()
	sentences := newSentenceRepoFake()
	seedChapter(t, chapters, "ch-locked", true)
	if err := paragraphs.Create(context.Background(), &domain.Paragraph{ID: "par-1", ChapterID: "ch-locked", OrderIndex: 1}); err != nil {
		t.Fatalf("seed paragraph: %v", err)
	}
	if err := sentences.Create(context.Background(), &domain.Sentence{ID: "sen-1", ParagraphID: "par-1", OrderIndex: 1, Content: "old"}); err != nil {
		t.Fatalf("seed sentence: %v", err)
	}
	uc := NewContentUseCase(chapters, paragraphs, sentences)

	_, err := uc.UpdateSentence(context.Background(), "sen-1", "changed")
	if !domain.IsKind(err, domain.ErrChapterConfirmed) {
		t.Fatalf("expected ErrChapterConfirmed through sentence path, got %v", err)
	}
}

func TestUpdateParagraphRequiresContent(t *testing.T) {
	uc := NewContentUseCase(newChapterRepoFake(), newParagraphRepoFake(), newSentenceRepoFake())

	_, err := uc.UpdateParagraph(context.Background(), "par-1", "   ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
