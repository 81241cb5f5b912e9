package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/storyreelhq/storyreel/internal/auth"
	"github.com/storyreelhq/storyreel/internal/config"
	"github.com/storyreelhq/storyreel/internal/core/ports"
	"github.com/storyreelhq/storyreel/internal/core/usecase"
	"github.com/storyreelhq/storyreel/internal/export"
	"github.com/storyreelhq/storyreel/internal/infrastructure/extractor"
	"github.com/storyreelhq/storyreel/internal/infrastructure/provider"
	"github.com/storyreelhq/storyreel/internal/infrastructure/queue/nats"
	"github.com/storyreelhq/storyreel/internal/infrastructure/repository/postgres"
	"github.com/storyreelhq/storyreel/internal/infrastructure/resilience"
	"github.com/storyreelhq/storyreel/internal/infrastructure/splitter"
	"github.com/storyreelhq/storyreel/internal/infrastructure/storage/localfs"
	"github.com/storyreelhq/storyreel/internal/observability/metrics"
)

// App wires the shared infrastructure once; the api and worker binaries pick
// the slices they need.
type App struct {
	Config config.Config
	Logger *slog.Logger

	DB      *sql.DB
	Queue   *nats.Queue
	Storage ports.ObjectStorage

	Projects    ports.ProjectRepository
	Chapters    ports.ChapterRepository
	Paragraphs  ports.ParagraphRepository
	Sentences   ports.SentenceRepository
	Tasks       ports.TaskRepository
	Credentials ports.CredentialRepository
	Users       ports.UserRepository

	AuthUC       ports.AuthService
	IngestUC     ports.ProjectIngestor
	ProjectUC    ports.ProjectService
	ContentUC    ports.ContentService
	GenerationUC ports.GenerationService
	TaskUC       ports.TaskService
	CredentialUC ports.CredentialService
	Exporter     *export.StoryboardExporter
	Provider     *provider.Client

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath, cfg.PublicURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	signer, err := auth.NewSigner(cfg.AuthSecret, cfg.TokenTTL)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	projects := postgres.NewProjectRepository(db)
	chapters := postgres.NewChapterRepository(db)
	paragraphs := postgres.NewParagraphRepository(db)
	sentences := postgres.NewSentenceRepository(db)
	tasks := postgres.NewTaskRepository(db)
	credentials := postgres.NewCredentialRepository(db)
	users := postgres.NewUserRepository(db)

	providerClient := provider.NewClient(resilience.NewExecutor(resilience.ProviderConfig()))
	catalog := provider.NewCatalog(providerClient, cfg.ProviderCatalogPath)

	return &App{
		Config: cfg,
		Logger: logger,

		DB:      db,
		Queue:   queue,
		Storage: storage,

		Projects:    projects,
		Chapters:    chapters,
		Paragraphs:  paragraphs,
		Sentences:   sentences,
		Tasks:       tasks,
		Credentials: credentials,
		Users:       users,

		AuthUC:       usecase.NewAuthUseCase(users, signer, cfg.RegistrationOpen, logger),
		IngestUC:     usecase.NewIngestProjectUseCase(projects, tasks, storage, queue),
		ProjectUC:    usecase.NewProjectUseCase(projects),
		ContentUC:    usecase.NewContentUseCase(chapters, paragraphs, sentences),
		GenerationUC: usecase.NewGenerationUseCase(tasks, credentials, chapters, queue, logger),
		TaskUC:       usecase.NewTaskUseCase(tasks),
		CredentialUC: usecase.NewCredentialUseCase(credentials, catalog, logger),
		Exporter:     export.NewStoryboardExporter(projects, chapters, paragraphs, sentences),
		Provider:     providerClient,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// NewRunner assembles the worker-side task executor on top of the shared
// infrastructure.
func (a *App) NewRunner(workerMetrics *metrics.WorkerMetrics, service string) *usecase.RunnerUseCase {
	return usecase.NewRunnerUseCase(usecase.RunnerDeps{
		Tasks:       a.Tasks,
		Projects:    a.Projects,
		Chapters:    a.Chapters,
		Paragraphs:  a.Paragraphs,
		Sentences:   a.Sentences,
		Credentials: a.Credentials,
		Extractor:   extractor.New(a.Storage),
		Splitter:    splitter.New(),
		Prompts:     a.Provider,
		Images:      a.Provider,
		Speech:      a.Provider,
		Storage:     a.Storage,
		Notifier:    &nats.ProgressNotifier{Queue: a.Queue},
		Metrics:     workerMetrics,
		Logger:      a.Logger,
		Service:     service,
		TaskTimeout: a.Config.WorkerTaskTimeout,
	})
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
