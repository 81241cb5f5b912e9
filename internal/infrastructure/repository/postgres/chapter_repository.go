package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

type ChapterRepository struct {
	db *sql.DB
}

func NewChapterRepository(db *sql.DB) *ChapterRepository {
	return &ChapterRepository{db: db}
}

const chapterColumns = `id, project_id, chapter_number, title, content, word_count,
paragraph_count, status, is_confirmed, created_at, updated_at`

func (r *ChapterRepository) Create(ctx context.Context, c *domain.Chapter) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO chapters (`+chapterColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`, c.ID, c.ProjectID, c.ChapterNumber, c.Title, c.Content, c.WordCount,
		c.ParagraphCount, string(c.Status), c.IsConfirmed, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create chapter: %w", err)
	}
	return nil
}

func (r *ChapterRepository) GetByID(ctx context.Context, id string) (*domain.Chapter, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+chapterColumns+`
FROM chapters
WHERE id = $1
`, id)

	c, err := scanChapter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get chapter", err)
		}
		return nil, fmt.Errorf("get chapter by id: %w", err)
	}
	return &c, nil
}

func (r *ChapterRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Chapter, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+chapterColumns+`
FROM chapters
WHERE project_id = $1
ORDER BY chapter_number
`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Chapter, 0)
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chapters: %w", err)
	}
	return out, nil
}

func (r *ChapterRepository) Update(ctx context.Context, c *domain.Chapter) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE chapters
SET title = $2, content = $3, word_count = $4, status = $5, updated_at = $6
WHERE id = $1 AND is_confirmed = FALSE
`, c.ID, c.Title, c.Content, c.WordCount, string(c.Status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	return requireRow(result, "chapter", c.ID)
}

// Confirm flips the one-way lock. Confirming an already confirmed chapter
// affects zero rows and is reported as such so callers can treat it as
// idempotent.
func (r *ChapterRepository) Confirm(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE chapters
SET is_confirmed = TRUE, status = $2, updated_at = $3
WHERE id = $1 AND is_confirmed = FALSE
`, id, string(domain.ChapterConfirmed), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("confirm chapter: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm chapter rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrConflict, "confirm chapter", fmt.Errorf("id=%s already confirmed or missing", id))
	}
	return nil
}

func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	return requireRow(result, "chapter", id)
}

func scanChapter(row rowScanner) (domain.Chapter, error) {
	var c domain.Chapter
	var status string
	err := row.Scan(
		&c.ID,
		&c.ProjectID,
		&c.ChapterNumber,
		&c.Title,
		&c.Content,
		&c.WordCount,
		&c.ParagraphCount,
		&status,
		&c.IsConfirmed,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.Chapter{}, err
	}
	c.Status = domain.ChapterStatus(status)
	return c, nil
}
