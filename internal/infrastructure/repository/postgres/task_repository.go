package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, project_id, chapter_id, kind, status, progress,
sentence_ids, credential_id, model, voice, result, error_message, created_at, updated_at`

func (r *TaskRepository) Create(ctx context.Context, t *domain.GenerationTask) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO generation_tasks (`+taskColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`, t.ID, t.ProjectID, t.ChapterID, string(t.Kind), string(t.Status), t.Progress,
		strings.Join(t.SentenceIDs, ","), t.CredentialID, t.Model, t.Voice, t.Result, t.ErrorMessage, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.GenerationTask, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+taskColumns+`
FROM generation_tasks
WHERE id = $1
`, id)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get task", err)
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return &t, nil
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, progress int, result, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE generation_tasks
SET status = $2, progress = $3, result = $4, error_message = $5, updated_at = $6
WHERE id = $1
`, id, string(status), progress, result, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return requireRow(res, "task", id)
}

// Revoke cancels a task that has not started yet. A task already picked up by
// a worker keeps running; revocation of non-PENDING tasks is a conflict.
func (r *TaskRepository) Revoke(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE generation_tasks
SET status = $2, updated_at = $3
WHERE id = $1 AND status = $4
`, id, string(domain.TaskRevoked), time.Now().UTC(), string(domain.TaskPending))
	if err != nil {
		return fmt.Errorf("revoke task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke task rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrConflict, "revoke task", fmt.Errorf("id=%s not pending", id))
	}
	return nil
}

func scanTask(row rowScanner) (domain.GenerationTask, error) {
	var t domain.GenerationTask
	var kind, status, sentenceIDs string
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.ChapterID,
		&kind,
		&status,
		&t.Progress,
		&sentenceIDs,
		&t.CredentialID,
		&t.Model,
		&t.Voice,
		&t.Result,
		&t.ErrorMessage,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return domain.GenerationTask{}, err
	}
	t.Kind = domain.TaskKind(kind)
	t.Status = domain.TaskStatus(status)
	if sentenceIDs != "" {
		t.SentenceIDs = strings.Split(sentenceIDs, ",")
	}
	return t, nil
}
