package ports

import (
	"context"
	"io"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

// ProjectRepository persists project metadata and pipeline state.
type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	UpdateStatus(ctx context.Context, id string, status domain.ProjectStatus, progress int, errMessage string) error
	UpdateCounts(ctx context.Context, id string, words, chapters, paragraphs, sentences int) error
	Delete(ctx context.Context, id string) error
}

// ChapterRepository persists the chapter level of the content hierarchy.
type ChapterRepository interface {
	Create(ctx context.Context, c *domain.Chapter) error
	GetByID(ctx context.Context, id string) (*domain.Chapter, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Chapter, error)
	Update(ctx context.Context, c *domain.Chapter) error
	Confirm(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type ParagraphRepository interface {
	Create(ctx context.Context, p *domain.Paragraph) error
	GetByID(ctx context.Context, id string) (*domain.Paragraph, error)
	ListByChapter(ctx context.Context, chapterID string) ([]domain.Paragraph, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

type SentenceRepository interface {
	Create(ctx context.Context, s *domain.Sentence) error
	GetByID(ctx context.Context, id string) (*domain.Sentence, error)
	ListByParagraph(ctx context.Context, paragraphID string) ([]domain.Sentence, error)
	ListByChapter(ctx context.Context, chapterID string) ([]domain.Sentence, error)
	UpdateContent(ctx context.Context, id, content string) error
	SavePrompt(ctx context.Context, id, imagePrompt string) error
	SaveImage(ctx context.Context, id, imageURL string) error
	SaveAudio(ctx context.Context, id, audioURL string, durationMs int) error
}

// TaskRepository persists asynchronous generation tasks polled by clients.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.GenerationTask) error
	GetByID(ctx context.Context, id string) (*domain.GenerationTask, error)
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, progress int, result, errMessage string) error
	Revoke(ctx context.Context, id string) error
}

type CredentialRepository interface {
	Create(ctx context.Context, c *domain.Credential) error
	GetByID(ctx context.Context, id string) (*domain.Credential, error)
	List(ctx context.Context) ([]domain.Credential, error)
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Count(ctx context.Context) (int, error)
}

// ObjectStorage stores source documents and generated assets.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	URL(key string) string
}

// MessageQueue dispatches task ids to workers and fans task-progress
// snapshots back out to API instances.
type MessageQueue interface {
	PublishTask(ctx context.Context, taskID string) error
	SubscribeTasks(ctx context.Context, handler func(context.Context, string) error) error
	PublishProgress(ctx context.Context, task *domain.GenerationTask) error
	SubscribeProgress(ctx context.Context, handler func(context.Context, *domain.GenerationTask)) error
}

// TextExtractor extracts plain text from a stored source document.
type TextExtractor interface {
	Extract(ctx context.Context, storagePath, mimeType string) (string, error)
}

// ContentSplitter breaks extracted text into the chapter hierarchy.
type ContentSplitter interface {
	Split(text string) []SplitChapter
}

type SplitChapter struct {
	Title      string
	Content    string
	Paragraphs []SplitParagraph
}

type SplitParagraph struct {
	Content   string
	Sentences []string
}

// PromptGenerator produces an image prompt for one sentence.
type PromptGenerator interface {
	GeneratePrompt(ctx context.Context, cred *domain.Credential, model, sentence string) (string, error)
}

// ImageGenerator renders one image for a prompt and returns the raw bytes.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, cred *domain.Credential, model, prompt string) ([]byte, error)
}

// SpeechGenerator synthesizes audio for one sentence. Duration is reported in
// milliseconds when the provider exposes it, else zero.
type SpeechGenerator interface {
	GenerateSpeech(ctx context.Context, cred *domain.Credential, model, voice, text string) ([]byte, int, error)
}

// ModelCatalog lists models available to a credential, falling back to a
// provider-specific static set when the provider endpoint is unreachable.
type ModelCatalog interface {
	ListModels(ctx context.Context, cred *domain.Credential) ([]string, error)
	Voices(provider, model string) []string
}

// TaskNotifier pushes progress updates to subscribed observers.
type TaskNotifier interface {
	TaskProgress(task *domain.GenerationTask)
}
