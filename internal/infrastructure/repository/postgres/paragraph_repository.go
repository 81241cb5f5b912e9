package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

type ParagraphRepository struct {
	db *sql.DB
}

func NewParagraphRepository(db *sql.DB) *ParagraphRepository {
	return &ParagraphRepository{db: db}
}

func (r *ParagraphRepository) Create(ctx context.Context, p *domain.Paragraph) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO paragraphs (id, chapter_id, order_index, content, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, p.ID, p.ChapterID, p.OrderIndex, p.Content, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create paragraph: %w", err)
	}
	return nil
}

func (r *ParagraphRepository) GetByID(ctx context.Context, id string) (*domain.Paragraph, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, chapter_id, order_index, content, created_at, updated_at
FROM paragraphs
WHERE id = $1
`, id)

	var p domain.Paragraph
	err := row.Scan(&p.ID, &p.ChapterID, &p.OrderIndex, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get paragraph", err)
		}
		return nil, fmt.Errorf("get paragraph by id: %w", err)
	}
	return &p, nil
}

func (r *ParagraphRepository) ListByChapter(ctx context.Context, chapterID string) ([]domain.Paragraph, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, chapter_id, order_index, content, created_at, updated_at
FROM paragraphs
WHERE chapter_id = $1
ORDER BY order_index
`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("list paragraphs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Paragraph, 0)
	for rows.Next() {
		var p domain.Paragraph
		if err := rows.Scan(&p.ID, &p.ChapterID, &p.OrderIndex, &p.Content, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan paragraph: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paragraphs: %w", err)
	}
	return out, nil
}

func (r *ParagraphRepository) UpdateContent(ctx context.Context, id, content string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE paragraphs
SET content = $2, updated_at = $3
WHERE id = $1
`, id, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update paragraph: %w", err)
	}
	return requireRow(result, "paragraph", id)
}

// Delete is a physical delete; sentences go with it via the FK cascade.
func (r *ParagraphRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM paragraphs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete paragraph: %w", err)
	}
	return requireRow(result, "paragraph", id)
}
