package client

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

// ContentEditor is the subset of the API client the edit session writes
// through.
type ContentEditor interface {
	GetChapter(ctx context.Context, id string) (*domain.Chapter, error)
	UpdateParagraph(ctx context.Context, id, content string) (*domain.Paragraph, error)
	DeleteParagraph(ctx context.Context, id string) error
	ConfirmChapter(ctx context.Context, id string) (*domain.Chapter, error)
}

// SwitchConfirmer decides whether pending edits may be discarded when the
// session moves to another chapter. Returning false keeps the current chapter
// open; that is not an error.
type SwitchConfirmer func(pendingCount int) bool

// EditSession stages paragraph edits for one chapter and applies them in a
// single save. Nothing reaches the server until Save; staged edits are
// discarded when the session moves to a different chapter.
type EditSession struct {
	editor        ContentEditor
	confirmSwitch SwitchConfirmer

	mu        sync.Mutex
	chapterID string
	confirmed bool
	pending   map[string]domain.PendingEdit
}

type EditSessionOption func(*EditSession)

func WithSwitchConfirmer(fn SwitchConfirmer) EditSessionOption {
	return func(s *EditSession) { s.confirmSwitch = fn }
}

func NewEditSession(editor ContentEditor, opts ...EditSessionOption) *EditSession {
	s := &EditSession{
		editor:  editor,
		pending: make(map[string]domain.PendingEdit),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open binds the session to a chapter, discarding any edits staged for a
// previous one. When a switch would drop staged edits the configured
// SwitchConfirmer is consulted first; a declined switch re-returns the
// current chapter. A confirmed chapter opens read-only.
func (s *EditSession) Open(ctx context.Context, chapterID string) (*domain.Chapter, error) {
	s.mu.Lock()
	current := s.chapterID
	pendingCount := len(s.pending)
	s.mu.Unlock()

	if current != "" && current != chapterID && pendingCount > 0 && s.confirmSwitch != nil {
		if !s.confirmSwitch(pendingCount) {
			return s.editor.GetChapter(ctx, current)
		}
	}

	chapter, err := s.editor.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chapterID != chapterID {
		s.pending = make(map[string]domain.PendingEdit)
	}
	s.chapterID = chapterID
	s.confirmed = chapter.IsConfirmed
	return chapter, nil
}

// Stage records one paragraph change. ActionKeep and ActionIgnore clear any
// previous staging for the paragraph.
func (s *EditSession) Stage(paragraphID string, action domain.ParagraphAction, editedContent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chapterID == "" {
		return fmt.Errorf("no chapter open")
	}
	if s.confirmed {
		return fmt.Errorf("chapter %s is confirmed and read-only", s.chapterID)
	}

	switch action {
	case domain.ActionKeep, domain.ActionIgnore:
		delete(s.pending, paragraphID)
	case domain.ActionEdit:
		s.pending[paragraphID] = domain.PendingEdit{Action: action, EditedContent: editedContent}
	case domain.ActionDelete:
		s.pending[paragraphID] = domain.PendingEdit{Action: action}
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	return nil
}

// Pending returns a copy of the staged edits.
func (s *EditSession) Pending() map[string]domain.PendingEdit {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.PendingEdit, len(s.pending))
	for id, edit := range s.pending {
		out[id] = edit
	}
	return out
}

// Discard drops all staged edits without applying them.
func (s *EditSession) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string]domain.PendingEdit)
}

// Save partitions the staged entries into deletes and edits, applies all
// deletes, then all edits, and clears the staging area. The first failed
// call leaves the remaining entries staged so the save can be retried.
func (s *EditSession) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.confirmed {
		s.mu.Unlock()
		return fmt.Errorf("chapter %s is confirmed and read-only", s.chapterID)
	}
	var deletes, edits []string
	for id, edit := range s.pending {
		if edit.Action == domain.ActionDelete {
			deletes = append(deletes, id)
		} else {
			edits = append(edits, id)
		}
	}
	sort.Strings(deletes)
	sort.Strings(edits)
	staged := make(map[string]domain.PendingEdit, len(s.pending))
	for id, edit := range s.pending {
		staged[id] = edit
	}
	s.mu.Unlock()

	for _, id := range append(deletes, edits...) {
		edit := staged[id]
		var err error
		switch edit.Action {
		case domain.ActionDelete:
			err = s.editor.DeleteParagraph(ctx, id)
		case domain.ActionEdit:
			_, err = s.editor.UpdateParagraph(ctx, id, edit.EditedContent)
		}
		if err != nil {
			return fmt.Errorf("apply %s to paragraph %s: %w", edit.Action, id, err)
		}
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}
	return nil
}

// Confirm saves any staged edits and then locks the chapter. After a
// successful confirm the session is read-only.
func (s *EditSession) Confirm(ctx context.Context) (*domain.Chapter, error) {
	s.mu.Lock()
	chapterID := s.chapterID
	s.mu.Unlock()
	if chapterID == "" {
		return nil, fmt.Errorf("no chapter open")
	}

	if err := s.Save(ctx); err != nil {
		return nil, err
	}
	chapter, err := s.editor.ConfirmChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.confirmed = true
	s.pending = make(map[string]domain.PendingEdit)
	s.mu.Unlock()
	return chapter, nil
}
