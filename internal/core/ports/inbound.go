package ports

import (
	"context"
	"io"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

// Session is an issued bearer token with its subject and expiry.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// AuthService registers users and issues stateless bearer tokens. Logout is a
// client-side token discard.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*Session, error)
	Refresh(ctx context.Context, userID string) (*Session, error)
	RegistrationOpen(ctx context.Context) (bool, error)
	VerifyToken(token string) (string, error)
}

// ProjectIngestor is the inbound contract for document upload orchestration.
type ProjectIngestor interface {
	Upload(ctx context.Context, title, description, filename, mimeType string, body io.Reader) (*domain.Project, *domain.GenerationTask, error)
}

// ProjectService is the inbound read/write model for project metadata.
type ProjectService interface {
	Get(ctx context.Context, id string) (*domain.Project, error)
	State(ctx context.Context, id string) (*domain.ProjectState, error)
	List(ctx context.Context) ([]domain.Project, error)
	Update(ctx context.Context, id, title, description string) (*domain.Project, error)
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ContentService is the inbound contract for the chapter hierarchy.
type ContentService interface {
	ListChapters(ctx context.Context, projectID string) ([]domain.Chapter, error)
	GetChapter(ctx context.Context, id string) (*domain.Chapter, error)
	UpdateChapter(ctx context.Context, id, title, content string) (*domain.Chapter, error)
	ConfirmChapter(ctx context.Context, id string) (*domain.Chapter, error)
	DeleteChapter(ctx context.Context, id string) error

	ListParagraphs(ctx context.Context, chapterID string) ([]domain.Paragraph, error)
	CreateParagraph(ctx context.Context, chapterID, content string, orderIndex int) (*domain.Paragraph, error)
	UpdateParagraph(ctx context.Context, id, content string) (*domain.Paragraph, error)
	DeleteParagraph(ctx context.Context, id string) error

	ListSentences(ctx context.Context, paragraphID string) ([]domain.Sentence, error)
	UpdateSentence(ctx context.Context, id, content string) (*domain.Sentence, error)
}

// GenerationService starts asynchronous AI-asset generation tasks.
type GenerationService interface {
	StartPrompts(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationTask, error)
	StartAudio(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationTask, error)
	StartImages(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationTask, error)
}

// TaskService reads and revokes asynchronous tasks.
type TaskService interface {
	Get(ctx context.Context, id string) (*domain.GenerationTask, error)
	Revoke(ctx context.Context, id string) error
}

// TaskRunner is the worker-side contract for executing one dispatched task.
type TaskRunner interface {
	Run(ctx context.Context, taskID string) error
}

// CredentialService manages provider credentials.
type CredentialService interface {
	Create(ctx context.Context, name, provider, apiKey, baseURL, defaultModel string) (*domain.Credential, error)
	List(ctx context.Context) ([]domain.Credential, error)
	Delete(ctx context.Context, id string) error
	Models(ctx context.Context, id string) ([]string, error)
	Voices(ctx context.Context, id, model string) ([]string, error)
}
