package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/core/ports"
	"github.com/storyreelhq/storyreel/internal/infrastructure/splitter"
	"github.com/storyreelhq/storyreel/internal/observability/metrics"
)

// Words per minute assumed when the speech provider does not report a clip
// duration.
const fallbackSpeechWPM = 160

// RunnerUseCase executes one dispatched generation task end to end: document
// parsing or per-sentence asset generation. Progress and terminal status are
// written back to the task row so polling clients observe the run.
type RunnerUseCase struct {
	tasks       ports.TaskRepository
	projects    ports.ProjectRepository
	chapters    ports.ChapterRepository
	paragraphs  ports.ParagraphRepository
	sentences   ports.SentenceRepository
	credentials ports.CredentialRepository

	extractor ports.TextExtractor
	splitter  ports.ContentSplitter
	prompts   ports.PromptGenerator
	images    ports.ImageGenerator
	speech    ports.SpeechGenerator
	storage   ports.ObjectStorage
	notifier  ports.TaskNotifier

	metrics     *metrics.WorkerMetrics
	logger      *slog.Logger
	service     string
	taskTimeout time.Duration
}

type RunnerDeps struct {
	Tasks       ports.TaskRepository
	Projects    ports.ProjectRepository
	Chapters    ports.ChapterRepository
	Paragraphs  ports.ParagraphRepository
	Sentences   ports.SentenceRepository
	Credentials ports.CredentialRepository
	Extractor   ports.TextExtractor
	Splitter    ports.ContentSplitter
	Prompts     ports.PromptGenerator
	Images      ports.ImageGenerator
	Speech      ports.SpeechGenerator
	Storage     ports.ObjectStorage
	Notifier    ports.TaskNotifier
	Metrics     *metrics.WorkerMetrics
	Logger      *slog.Logger
	Service     string
	TaskTimeout time.Duration
}

func NewRunnerUseCase(deps RunnerDeps) *RunnerUseCase {
	if deps.TaskTimeout <= 0 {
		deps.TaskTimeout = 15 * time.Minute
	}
	return &RunnerUseCase{
		tasks:       deps.Tasks,
		projects:    deps.Projects,
		chapters:    deps.Chapters,
		paragraphs:  deps.Paragraphs,
		sentences:   deps.Sentences,
		credentials: deps.Credentials,
		extractor:   deps.Extractor,
		splitter:    deps.Splitter,
		prompts:     deps.Prompts,
		images:      deps.Images,
		speech:      deps.Speech,
		storage:     deps.Storage,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		service:     deps.Service,
		taskTimeout: deps.TaskTimeout,
	}
}

func (uc *RunnerUseCase) Run(ctx context.Context, taskID string) error {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status != domain.TaskPending {
		// Revoked before pickup, or a queue redelivery of a finished task.
		uc.logger.Info("skipping task",
			slog.String("task_id", taskID),
			slog.String("status", string(task.Status)))
		return nil
	}

	if uc.metrics != nil {
		uc.metrics.StartTask()
		uc.metrics.ObserveQueueLag(uc.service, time.Since(task.CreatedAt))
	}
	start := time.Now()

	if err := uc.setTaskProgress(ctx, task, domain.TaskProcessing, 0); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, uc.taskTimeout)
	defer cancel()

	switch task.Kind {
	case domain.TaskParse:
		err = uc.runParse(runCtx, task)
	case domain.TaskPrompts:
		err = uc.runPrompts(runCtx, task)
	case domain.TaskImages:
		err = uc.runImages(runCtx, task)
	case domain.TaskAudio:
		err = uc.runAudio(runCtx, task)
	default:
		err = fmt.Errorf("unknown task kind %q", task.Kind)
	}

	if uc.metrics != nil {
		uc.metrics.FinishTask(uc.service, string(task.Kind), time.Since(start), err)
	}

	if err != nil {
		uc.failTask(ctx, task, err)
		return err
	}

	task.Status = domain.TaskSuccess
	task.Progress = 100
	if updateErr := uc.tasks.UpdateStatus(ctx, task.ID, domain.TaskSuccess, 100, task.Result, ""); updateErr != nil {
		return updateErr
	}
	uc.notify(task)
	uc.logger.Info("task finished",
		slog.String("task_id", task.ID),
		slog.String("kind", string(task.Kind)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (uc *RunnerUseCase) runParse(ctx context.Context, task *domain.GenerationTask) error {
	project, err := uc.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return err
	}
	if err := uc.projects.UpdateStatus(ctx, project.ID, domain.ProjectParsing, 5, ""); err != nil {
		return err
	}

	text, err := uc.extractor.Extract(ctx, project.StoragePath, project.MimeType)
	if err != nil {
		return fmt.Errorf("extract %s: %w", project.ID, err)
	}
	if err := uc.setTaskProgress(ctx, task, domain.TaskProcessing, 20); err != nil {
		return err
	}

	split := uc.splitter.Split(text)
	if len(split) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "parse project", fmt.Errorf("document produced no content"))
	}

	var words, paragraphTotal, sentenceTotal int
	now := time.Now().UTC()
	for i, sc := range split {
		title := sc.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		chapter := &domain.Chapter{
			ID:             uuid.NewString(),
			ProjectID:      project.ID,
			ChapterNumber:  i + 1,
			Title:          title,
			Content:        sc.Content,
			WordCount:      splitter.CountWords(sc.Content),
			ParagraphCount: len(sc.Paragraphs),
			Status:         domain.ChapterReady,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := uc.chapters.Create(ctx, chapter); err != nil {
			return err
		}
		words += chapter.WordCount

		for pi, sp := range sc.Paragraphs {
			paragraph := &domain.Paragraph{
				ID:         uuid.NewString(),
				ChapterID:  chapter.ID,
				OrderIndex: pi + 1,
				Content:    sp.Content,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := uc.paragraphs.Create(ctx, paragraph); err != nil {
				return err
			}
			paragraphTotal++

			for si, line := range sp.Sentences {
				sentence := &domain.Sentence{
					ID:          uuid.NewString(),
					ParagraphID: paragraph.ID,
					OrderIndex:  si + 1,
					Content:     line,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := uc.sentences.Create(ctx, sentence); err != nil {
					return err
				}
				sentenceTotal++
			}
		}

		// 20..90 across chapters.
		progress := 20 + (i+1)*70/len(split)
		if err := uc.setTaskProgress(ctx, task, domain.TaskProcessing, progress); err != nil {
			return err
		}
	}

	if err := uc.projects.UpdateCounts(ctx, project.ID, words, len(split), paragraphTotal, sentenceTotal); err != nil {
		return err
	}
	if err := uc.projects.UpdateStatus(ctx, project.ID, domain.ProjectParsed, 100, ""); err != nil {
		return err
	}
	task.Result = fmt.Sprintf("%d chapters, %d paragraphs, %d sentences", len(split), paragraphTotal, sentenceTotal)
	return nil
}

func (uc *RunnerUseCase) runPrompts(ctx context.Context, task *domain.GenerationTask) error {
	cred, batch, err := uc.generationScope(ctx, task)
	if err != nil {
		return err
	}
	for i, sentence := range batch {
		prompt, err := uc.prompts.GeneratePrompt(ctx, cred, task.Model, sentence.Content)
		if err != nil {
			return fmt.Errorf("prompt for sentence %s: %w", sentence.ID, err)
		}
		if err := uc.sentences.SavePrompt(ctx, sentence.ID, prompt); err != nil {
			return err
		}
		uc.observeAsset("prompt")
		if err := uc.setTaskProgress(ctx, task, domain.TaskProcessing, batchProgress(i, len(batch))); err != nil {
			return err
		}
	}
	task.Result = fmt.Sprintf("%d prompts", len(batch))
	return uc.markGenerated(ctx, task)
}

func (uc *RunnerUseCase) runImages(ctx context.Context, task *domain.GenerationTask) error {
	cred, batch, err := uc.generationScope(ctx, task)
	if err != nil {
		return err
	}
	for i, sentence := range batch {
		prompt := sentence.ImagePrompt
		if prompt == "" {
			// No staged prompt; render straight from the sentence text.
			prompt = sentence.Content
		}
		raw, err := uc.images.GenerateImage(ctx, cred, task.Model, prompt)
		if err != nil {
			return fmt.Errorf("image for sentence %s: %w", sentence.ID, err)
		}
		key := fmt.Sprintf("assets/%s/images/%s.png", task.ProjectID, sentence.ID)
		if err := uc.saveAsset(ctx, key, raw); err != nil {
			return err
		}
		if err := uc.sentences.SaveImage(ctx, sentence.ID, uc.storage.URL(key)); err != nil {
			return err
		}
		uc.observeAsset("image")
		if err := uc.setTaskProgress(ctx, task, domain.TaskProcessing, batchProgress(i, len(batch))); err != nil {
			return err
		}
	}
	task.Result = fmt.Sprintf("%d images", len(batch))
	return uc.markGenerated(ctx, task)
}

func (uc *RunnerUseCase) runAudio(ctx context.Context, task *domain.GenerationTask) error {
	cred, batch, err := uc.generationScope(ctx, task)
	if err != nil {
		return err
	}
	for i, sentence := range batch {
		raw, durationMs, err := uc.speech.GenerateSpeech(ctx, cred, task.Model, task.Voice, sentence.Content)
		if err != nil {
			return fmt.Errorf("audio for sentence %s: %w", sentence.ID, err)
		}
		if durationMs <= 0 {
			durationMs = estimateSpeechMs(sentence.Content)
		}
		key := fmt.Sprintf("assets/%s/audio/%s.mp3", task.ProjectID, sentence.ID)
		if err := uc.saveAsset(ctx, key, raw); err != nil {
			return err
		}
		if err := uc.sentences.SaveAudio(ctx, sentence.ID, uc.storage.URL(key), durationMs); err != nil {
			return err
		}
		uc.observeAsset("audio")
		if err := uc.setTaskProgress(ctx, task, domain.TaskProcessing, batchProgress(i, len(batch))); err != nil {
			return err
		}
	}
	task.Result = fmt.Sprintf("%d clips", len(batch))
	return uc.markGenerated(ctx, task)
}

// generationScope resolves the credential and the sentence batch a generation
// task operates on: the explicit id list when given, else the whole chapter.
func (uc *RunnerUseCase) generationScope(ctx context.Context, task *domain.GenerationTask) (*domain.Credential, []domain.Sentence, error) {
	cred, err := uc.credentials.GetByID(ctx, task.CredentialID)
	if err != nil {
		return nil, nil, err
	}

	var batch []domain.Sentence
	if len(task.SentenceIDs) > 0 {
		batch = make([]domain.Sentence, 0, len(task.SentenceIDs))
		for _, id := range task.SentenceIDs {
			s, err := uc.sentences.GetByID(ctx, id)
			if err != nil {
				return nil, nil, err
			}
			batch = append(batch, *s)
		}
	} else {
		batch, err = uc.sentences.ListByChapter(ctx, task.ChapterID)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(batch) == 0 {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "generation scope", fmt.Errorf("no sentences in scope"))
	}

	if err := uc.projects.UpdateStatus(ctx, task.ProjectID, domain.ProjectGenerating, 0, ""); err != nil {
		return nil, nil, err
	}
	return cred, batch, nil
}

func (uc *RunnerUseCase) markGenerated(ctx context.Context, task *domain.GenerationTask) error {
	return uc.projects.UpdateStatus(ctx, task.ProjectID, domain.ProjectCompleted, 100, "")
}

func (uc *RunnerUseCase) saveAsset(ctx context.Context, key string, raw []byte) error {
	if err := uc.storage.Save(ctx, key, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("save asset %s: %w", key, err)
	}
	return nil
}

func (uc *RunnerUseCase) setTaskProgress(ctx context.Context, task *domain.GenerationTask, status domain.TaskStatus, progress int) error {
	if err := uc.tasks.UpdateStatus(ctx, task.ID, status, progress, task.Result, ""); err != nil {
		return err
	}
	task.Status = status
	task.Progress = progress
	uc.notify(task)
	return nil
}

func (uc *RunnerUseCase) failTask(ctx context.Context, task *domain.GenerationTask, cause error) {
	task.Status = domain.TaskFailure
	task.ErrorMessage = cause.Error()
	if err := uc.tasks.UpdateStatus(ctx, task.ID, domain.TaskFailure, task.Progress, task.Result, cause.Error()); err != nil {
		uc.logger.Error("record task failure", slog.String("task_id", task.ID), slog.Any("error", err))
	}
	uc.failProject(ctx, task, cause)
	uc.notify(task)
	uc.logger.Error("task failed",
		slog.String("task_id", task.ID),
		slog.String("kind", string(task.Kind)),
		slog.Any("error", cause))
}

// failProject moves the project out of its transient status when a task
// dies. A generation task that aborted before reaching generating (bad
// credential, empty scope) leaves the parsed content's status untouched.
func (uc *RunnerUseCase) failProject(ctx context.Context, task *domain.GenerationTask, cause error) {
	if task.Kind != domain.TaskParse {
		project, err := uc.projects.GetByID(ctx, task.ProjectID)
		if err != nil {
			uc.logger.Error("load project for failure", slog.String("project_id", task.ProjectID), slog.Any("error", err))
			return
		}
		if project.Status != domain.ProjectGenerating {
			return
		}
	}
	if err := uc.projects.UpdateStatus(ctx, task.ProjectID, domain.ProjectFailed, 0, cause.Error()); err != nil {
		uc.logger.Error("record project failure", slog.String("project_id", task.ProjectID), slog.Any("error", err))
	}
}

func (uc *RunnerUseCase) notify(task *domain.GenerationTask) {
	if uc.notifier != nil {
		uc.notifier.TaskProgress(task)
	}
}

func (uc *RunnerUseCase) observeAsset(asset string) {
	if uc.metrics != nil {
		uc.metrics.ObserveAsset(uc.service, asset)
	}
}

func batchProgress(done, total int) int {
	if total <= 0 {
		return 100
	}
	p := (done + 1) * 100 / total
	if p > 99 {
		p = 99
	}
	return p
}

func estimateSpeechMs(text string) int {
	words := splitter.CountWords(text)
	if words == 0 {
		return 0
	}
	return words * 60_000 / fallbackSpeechWPM
}
