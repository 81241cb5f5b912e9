package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

// In-memory fakes shared across the usecase tests. Each fake stores copies so
// a test can mutate returned values without corrupting the store.

type projectRepoFake struct {
	mu    sync.Mutex
	items map[string]domain.Project
	err   error
}

func newProjectRepoFake() *projectRepoFake {
	return &projectRepoFake{items: map[string]domain.Project{}}
}

func (f *projectRepoFake) Create(_ context.Context, p *domain.Project) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[p.ID] = *p
	return nil
}

func (f *projectRepoFake) GetByID(_ context.Context, id string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get project", fmt.Errorf("id=%s", id))
	}
	out := p
	return &out, nil
}

func (f *projectRepoFake) List(context.Context) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Project, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *projectRepoFake) Update(_ context.Context, p *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[p.ID]; !ok {
		return domain.WrapError(domain.ErrNotFound, "update project", fmt.Errorf("id=%s", p.ID))
	}
	f.items[p.ID] = *p
	return nil
}

func (f *projectRepoFake) UpdateStatus(_ context.Context, id string, status domain.ProjectStatus, progress int, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "update project status", fmt.Errorf("id=%s", id))
	}
	p.Status = status
	p.ProcessingProgress = progress
	p.ErrorMessage = errMessage
	f.items[id] = p
	return nil
}

func (f *projectRepoFake) UpdateCounts(_ context.Context, id string, words, chapters, paragraphs, sentences int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "update project counts", fmt.Errorf("id=%s", id))
	}
	p.WordCount = words
	p.ChapterCount = chapters
	p.ParagraphCount = paragraphs
	p.SentenceCount = sentences
	f.items[id] = p
	return nil
}

func (f *projectRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type chapterRepoFake struct {
	mu    sync.Mutex
	items map[string]domain.Chapter
}

func newChapterRepoFake() *chapterRepoFake {
	return &chapterRepoFake{items: map[string]domain.Chapter{}}
}

func (f *chapterRepoFake) Create(_ context.Context, c *domain.Chapter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[c.ID] = *c
	return nil
}

func (f *chapterRepoFake) GetByID(_ context.Context, id string) (*domain.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get chapter", fmt.Errorf("id=%s", id))
	}
	out := c
	return &out, nil
}

func (f *chapterRepoFake) ListByProject(_ context.Context, projectID string) ([]domain.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Chapter
	for _, c := range f.items {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChapterNumber < out[j].ChapterNumber })
	return out, nil
}

func (f *chapterRepoFake) Update(_ context.Context, c *domain.Chapter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.items[c.ID]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "update chapter", fmt.Errorf("id=%s", c.ID))
	}
	if existing.IsConfirmed {
		return domain.WrapError(domain.ErrConflict, "update chapter", fmt.Errorf("id=%s confirmed", c.ID))
	}
	f.items[c.ID] = *c
	return nil
}

func (f *chapterRepoFake) Confirm(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "confirm chapter", fmt.Errorf("id=%s", id))
	}
	if c.IsConfirmed {
		return domain.WrapError(domain.ErrConflict, "confirm chapter", fmt.Errorf("id=%s already confirmed", id))
	}
	c.IsConfirmed = true
	c.Status = domain.ChapterConfirmed
	f.items[id] = c
	return nil
}

func (f *chapterRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type paragraphRepoFake struct {
	mu    sync.Mutex
	items map[string]domain.Paragraph
}

func newParagraphRepoFake() *paragraphRepoFake {
	return &paragraphRepoFake{items: map[string]domain.Paragraph{}}
}

func (f *paragraphRepoFake) Create(_ context.Context, p *domain.Paragraph) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[p.ID] = *p
	return nil
}

func (f *paragraphRepoFake) GetByID(_ context.Context, id string) (*domain.Paragraph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get paragraph", fmt.Errorf("id=%s", id))
	}
	out := p
	return &out, nil
}

func (f *paragraphRepoFake) ListByChapter(_ context.Context, chapterID string) ([]domain.Paragraph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Paragraph
	for _, p := range f.items {
		if p.ChapterID == chapterID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (f *paragraphRepoFake) UpdateContent(_ context.Context, id, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "update paragraph", fmt.Errorf("id=%s", id))
	}
	p.Content = content
	f.items[id] = p
	return nil
}

func (f *paragraphRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type sentenceRepoFake struct {
	mu    sync.Mutex
	items map[string]domain.Sentence
	// chapterOf maps paragraph id to chapter id for ListByChapter.
	chapterOf map[string]string
}

func newSentenceRepoFake() *sentenceRepoFake {
	return &sentenceRepoFake{items: map[string]domain.Sentence{}, chapterOf: map[string]string{}}
}

func (f *sentenceRepoFake) Create(_ context.Context, s *domain.Sentence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[s.ID] = *s
	return nil
}

func (f *sentenceRepoFake) GetByID(_ context.Context, id string) (*domain.Sentence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get sentence", fmt.Errorf("id=%s", id))
	}
	out := s
	return &out, nil
}

func (f *sentenceRepoFake) ListByParagraph(_ context.Context, paragraphID string) ([]domain.Sentence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Sentence
	for _, s := range f.items {
		if s.ParagraphID == paragraphID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (f *sentenceRepoFake) ListByChapter(_ context.Context, chapterID string) ([]domain.Sentence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Sentence
	for _, s := range f.items {
		if f.chapterOf[s.ParagraphID] == chapterID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ParagraphID != out[j].ParagraphID {
			return out[i].ParagraphID < out[j].ParagraphID
		}
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out, nil
}

func (f *sentenceRepoFake) UpdateContent(_ context.Context, id, content string) error {
	return f.patch(id, func(s *domain.Sentence) { s.Content = content })
}

func (f *sentenceRepoFake) SavePrompt(_ context.Context, id, imagePrompt string) error {
	return f.patch(id, func(s *domain.Sentence) { s.ImagePrompt = imagePrompt })
}

func (f *sentenceRepoFake) SaveImage(_ context.Context, id, imageURL string) error {
	return f.patch(id, func(s *domain.Sentence) { s.ImageURL = imageURL })
}

func (f *sentenceRepoFake) SaveAudio(_ context.Context, id, audioURL string, durationMs int) error {
	return f.patch(id, func(s *domain.Sentence) {
		s.AudioURL = audioURL
		s.DurationMs = durationMs
	})
}

func (f *sentenceRepoFake) patch(id string, apply func(*domain.Sentence)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "patch sentence", fmt.Errorf("id=%s", id))
	}
	apply(&s)
	f.items[id] = s
	return nil
}

type taskRepoFake struct {
	mu    sync.Mutex
	items map[string]domain.GenerationTask
	err   error
}

func newTaskRepoFake() *taskRepoFake {
	return &taskRepoFake{items: map[string]domain.GenerationTask{}}
}

func (f *taskRepoFake) Create(_ context.Context, t *domain.GenerationTask) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[t.ID] = *t
	return nil
}

func (f *taskRepoFake) GetByID(_ context.Context, id string) (*domain.GenerationTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get task", fmt.Errorf("id=%s", id))
	}
	out := t
	return &out, nil
}

func (f *taskRepoFake) UpdateStatus(_ context.Context, id string, status domain.TaskStatus, progress int, result, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "update task", fmt.Errorf("id=%s", id))
	}
	t.Status = status
	t.Progress = progress
	t.Result = result
	t.ErrorMessage = errMessage
	f.items[id] = t
	return nil
}

func (f *taskRepoFake) Revoke(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "revoke task", fmt.Errorf("id=%s", id))
	}
	if t.Status != domain.TaskPending {
		return domain.WrapError(domain.ErrConflict, "revoke task", fmt.Errorf("id=%s not pending", id))
	}
	t.Status = domain.TaskRevoked
	f.items[id] = t
	return nil
}

type credentialRepoFake struct {
	mu    sync.Mutex
	items map[string]domain.Credential
}

func newCredentialRepoFake() *credentialRepoFake {
	return &credentialRepoFake{items: map[string]domain.Credential{}}
}

func (f *credentialRepoFake) Create(_ context.Context, c *domain.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[c.ID] = *c
	return nil
}

func (f *credentialRepoFake) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get credential", fmt.Errorf("id=%s", id))
	}
	out := c
	return &out, nil
}

func (f *credentialRepoFake) List(context.Context) ([]domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Credential, 0, len(f.items))
	for _, c := range f.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *credentialRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type userRepoFake struct {
	mu    sync.Mutex
	items map[string]domain.User
}

func newUserRepoFake() *userRepoFake {
	return &userRepoFake{items: map[string]domain.User{}}
}

func (f *userRepoFake) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[u.ID] = *u
	return nil
}

func (f *userRepoFake) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get user", fmt.Errorf("id=%s", id))
	}
	out := u
	return &out, nil
}

func (f *userRepoFake) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.items {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get user", fmt.Errorf("username=%s", username))
}

func (f *userRepoFake) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items), nil
}

type storageFake struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func newStorageFake() *storageFake {
	return &storageFake{saved: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.saved[key]
	if !ok {
		return nil, fmt.Errorf("no object %s", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) URL(key string) string {
	return "http://assets.local/" + key
}

type queueFake struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (f *queueFake) PublishTask(_ context.Context, taskID string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, taskID)
	return nil
}

func (f *queueFake) SubscribeTasks(context.Context, func(context.Context, string) error) error {
	return fmt.Errorf("not implemented")
}

func (f *queueFake) PublishProgress(context.Context, *domain.GenerationTask) error { return nil }

func (f *queueFake) SubscribeProgress(context.Context, func(context.Context, *domain.GenerationTask)) error {
	return fmt.Errorf("not implemented")
}

type notifierFake struct {
	mu     sync.Mutex
	events []domain.GenerationTask
}

func (f *notifierFake) TaskProgress(task *domain.GenerationTask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *task)
}

func (f *notifierFake) terminalCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Status.Terminal() {
			n++
		}
	}
	return n
}
