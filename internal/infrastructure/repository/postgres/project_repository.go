package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, title, description, filename, mime_type, storage_path, status,
processing_progress, word_count, chapter_count, paragraph_count, sentence_count,
error_message, created_at, updated_at`

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO projects (`+projectColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`, p.ID, p.Title, p.Description, p.Filename, p.MimeType, p.StoragePath, string(p.Status),
		p.ProcessingProgress, p.WordCount, p.ChapterCount, p.ParagraphCount, p.SentenceCount,
		p.ErrorMessage, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+projectColumns+`
FROM projects
WHERE id = $1
`, id)

	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get project", err)
		}
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	return &p, nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+projectColumns+`
FROM projects
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE projects
SET title = $2, description = $3, updated_at = $4
WHERE id = $1
`, p.ID, p.Title, p.Description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return requireRow(result, "project", p.ID)
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, status domain.ProjectStatus, progress int, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE projects
SET status = $2, processing_progress = $3, error_message = $4, updated_at = $5
WHERE id = $1
`, id, string(status), progress, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	return requireRow(result, "project", id)
}

func (r *ProjectRepository) UpdateCounts(ctx context.Context, id string, words, chapters, paragraphs, sentences int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE projects
SET word_count = $2, chapter_count = $3, paragraph_count = $4, sentence_count = $5, updated_at = $6
WHERE id = $1
`, id, words, chapters, paragraphs, sentences, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update project counts: %w", err)
	}
	return requireRow(result, "project", id)
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireRow(result, "project", id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	var status string
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Filename,
		&p.MimeType,
		&p.StoragePath,
		&status,
		&p.ProcessingProgress,
		&p.WordCount,
		&p.ChapterCount,
		&p.ParagraphCount,
		&p.SentenceCount,
		&p.ErrorMessage,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Project{}, err
	}
	p.Status = domain.ProjectStatus(status)
	return p, nil
}

func requireRow(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrNotFound, entity, fmt.Errorf("id=%s", id))
	}
	return nil
}
