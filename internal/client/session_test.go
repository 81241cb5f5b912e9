package client

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

type contentEditorFake struct {
	mu        sync.Mutex
	chapters  map[string]*domain.Chapter
	updated   map[string]string
	deleted   []string
	applied   []string
	confirmed []string
	failOn    string
}

func newContentEditorFake() *contentEditorFake {
	return &contentEditorFake{
		chapters: map[string]*domain.Chapter{
			"ch1": {ID: "ch1", Title: "One", Status: domain.ChapterReady},
			"ch2": {ID: "ch2", Title: "Two", Status: domain.ChapterReady},
			"ch3": {ID: "ch3", Title: "Locked", Status: domain.ChapterConfirmed, IsConfirmed: true},
		},
		updated: map[string]string{},
	}
}

func (f *contentEditorFake) GetChapter(ctx context.Context, id string) (*domain.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.chapters[id]
	if !ok {
		return nil, fmt.Errorf("chapter %s not found", id)
	}
	snapshot := *ch
	return &snapshot, nil
}

func (f *contentEditorFake) UpdateParagraph(ctx context.Context, id, content string) (*domain.Paragraph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failOn {
		return nil, fmt.Errorf("update %s failed", id)
	}
	f.updated[id] = content
	f.applied = append(f.applied, "update:"+id)
	return &domain.Paragraph{ID: id, Content: content}, nil
}

func (f *contentEditorFake) DeleteParagraph(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failOn {
		return fmt.Errorf("delete %s failed", id)
	}
	f.deleted = append(f.deleted, id)
	f.applied = append(f.applied, "delete:"+id)
	return nil
}

func (f *contentEditorFake) ConfirmChapter(ctx context.Context, id string) (*domain.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.chapters[id]
	if !ok {
		return nil, fmt.Errorf("chapter %s not found", id)
	}
	ch.IsConfirmed = true
	ch.Status = domain.ChapterConfirmed
	f.confirmed = append(f.confirmed, id)
	snapshot := *ch
	return &snapshot, nil
}

func TestEditSessionSavePartitionsEditsAndDeletes(t *testing.T) {
	editor := newContentEditorFake()
	s := NewEditSession(editor)
	ctx := context.Background()

	if _, err := s.Open(ctx, "ch1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	mustStage(t, s, "par1", domain.ActionEdit, "rewritten")
	mustStage(t, s, "par2", domain.ActionDelete, "")
	mustStage(t, s, "par3", domain.ActionEdit, "draft")
	mustStage(t, s, "par3", domain.ActionKeep, "")

	if err := s.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	if editor.updated["par1"] != "rewritten" {
		t.Fatalf("par1 not updated: %+v", editor.updated)
	}
	if len(editor.deleted) != 1 || editor.deleted[0] != "par2" {
		t.Fatalf("unexpected deletes: %v", editor.deleted)
	}
	if _, ok := editor.updated["par3"]; ok {
		t.Fatal("keep action must cancel the staged edit")
	}
	if len(s.Pending()) != 0 {
		t.Fatalf("pending edits survived save: %v", s.Pending())
	}
}

func TestEditSessionSaveAppliesDeletesBeforeEdits(t *testing.T) {
	editor := newContentEditorFake()
	s := NewEditSession(editor)
	ctx := context.Background()

	if _, err := s.Open(ctx, "ch1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	mustStage(t, s, "par2", domain.ActionEdit, "second")
	mustStage(t, s, "par4", domain.ActionDelete, "")
	mustStage(t, s, "par1", domain.ActionEdit, "first")
	mustStage(t, s, "par3", domain.ActionDelete, "")

	if err := s.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	want := []string{"delete:par3", "delete:par4", "update:par1", "update:par2"}
	if len(editor.applied) != len(want) {
		t.Fatalf("applied %v, want %v", editor.applied, want)
	}
	for i, op := range want {
		if editor.applied[i] != op {
			t.Fatalf("applied %v, want %v", editor.applied, want)
		}
	}
}

func TestEditSessionFailedSaveKeepsRemainingEdits(t *testing.T) {
	editor := newContentEditorFake()
	editor.failOn = "par-bad"
	s := NewEditSession(editor)
	ctx := context.Background()

	if _, err := s.Open(ctx, "ch1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	mustStage(t, s, "par-bad", domain.ActionEdit, "will fail")

	if err := s.Save(ctx); err == nil {
		t.Fatal("expected save error")
	}
	if _, ok := s.Pending()["par-bad"]; !ok {
		t.Fatal("failed edit should stay staged for retry")
	}

	editor.failOn = ""
	if err := s.Save(ctx); err != nil {
		t.Fatalf("retry save: %v", err)
	}
	if editor.updated["par-bad"] != "will fail" {
		t.Fatal("retried edit not applied")
	}
}

func TestEditSessionSwitchingChaptersDiscardsStagedEdits(t *testing.T) {
	editor := newContentEditorFake()
	s := NewEditSession(editor)
	ctx := context.Background()

	if _, err := s.Open(ctx, "ch1"); err != nil {
		t.Fatalf("open ch1: %v", err)
	}
	mustStage(t, s, "par1", domain.ActionEdit, "lost on switch")

	if _, err := s.Open(ctx, "ch2"); err != nil {
		t.Fatalf("open ch2: %v", err)
	}
	if len(s.Pending()) != 0 {
		t.Fatalf("staged edits leaked across chapters: %v", s.Pending())
	}
}

func TestEditSessionSwitchConfirmerCanDecline(t *testing.T) {
	editor := newContentEditorFake()
	accept := false
	var askedCount int
	s := NewEditSession(editor, WithSwitchConfirmer(func(pendingCount int) bool {
		askedCount = pendingCount
		return accept
	}))
	ctx := context.Background()

	if _, err := s.Open(ctx, "ch1"); err != nil {
		t.Fatalf("open ch1: %v", err)
	}
	mustStage(t, s, "par1", domain.ActionEdit, "keep me")
	mustStage(t, s, "par2", domain.ActionDelete, "")

	// declined switch stays on ch1 with the edits intact
	chapter, err := s.Open(ctx, "ch2")
	if err != nil {
		t.Fatalf("declined switch must not error: %v", err)
	}
	if chapter.ID != "ch1" {
		t.Fatalf("declined switch moved to %s", chapter.ID)
	}
	if askedCount != 2 {
		t.Fatalf("confirmer asked about %d edits, want 2", askedCount)
	}
	if len(s.Pending()) != 2 {
		t.Fatalf("declined switch dropped edits: %v", s.Pending())
	}

	accept = true
	chapter, err = s.Open(ctx, "ch2")
	if err != nil {
		t.Fatalf("accepted switch: %v", err)
	}
	if chapter.ID != "ch2" || len(s.Pending()) != 0 {
		t.Fatalf("accepted switch should land on ch2 with no staged edits, got %s / %v",
			chapter.ID, s.Pending())
	}
}

func TestEditSessionConfirmedChapterIsReadOnly(t *testing.T) {
	editor := newContentEditorFake()
	s := NewEditSession(editor)
	ctx := context.Background()

	if _, err := s.Open(ctx, "ch3"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Stage("par1", domain.ActionEdit, "nope"); err == nil {
		t.Fatal("staging against a confirmed chapter must fail")
	}
	if err := s.Save(ctx); err == nil {
		t.Fatal("saving a confirmed chapter must fail")
	}
}

func TestEditSessionConfirmAppliesStagedEditsFirst(t *testing.T) {
	editor := newContentEditorFake()
	s := NewEditSession(editor)
	ctx := context.Background()

	if _, err := s.Open(ctx, "ch1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	mustStage(t, s, "par1", domain.ActionEdit, "final text")

	chapter, err := s.Confirm(ctx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !chapter.IsConfirmed {
		t.Fatal("confirm did not lock the chapter")
	}
	if editor.updated["par1"] != "final text" {
		t.Fatal("staged edit not applied before confirm")
	}
	if len(editor.confirmed) != 1 || editor.confirmed[0] != "ch1" {
		t.Fatalf("unexpected confirms: %v", editor.confirmed)
	}
	if err := s.Stage("par2", domain.ActionEdit, "late"); err == nil {
		t.Fatal("session should be read-only after confirm")
	}
}

func mustStage(t *testing.T, s *EditSession, id string, action domain.ParagraphAction, content string) {
	t.Helper()
	if err := s.Stage(id, action, content); err != nil {
		t.Fatalf("stage %s %s: %v", action, id, err)
	}
}
