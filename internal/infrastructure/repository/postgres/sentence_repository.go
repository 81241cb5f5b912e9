package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

type SentenceRepository struct {
	db *sql.DB
}

func NewSentenceRepository(db *sql.DB) *SentenceRepository {
	return &SentenceRepository{db: db}
}

const sentenceColumns = `id, paragraph_id, order_index, content, image_prompt,
image_url, audio_url, start_ms, duration_ms, created_at, updated_at`

func (r *SentenceRepository) Create(ctx context.Context, s *domain.Sentence) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sentences (`+sentenceColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`, s.ID, s.ParagraphID, s.OrderIndex, s.Content, s.ImagePrompt,
		s.ImageURL, s.AudioURL, s.StartMs, s.DurationMs, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create sentence: %w", err)
	}
	return nil
}

func (r *SentenceRepository) GetByID(ctx context.Context, id string) (*domain.Sentence, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+sentenceColumns+`
FROM sentences
WHERE id = $1
`, id)

	s, err := scanSentence(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get sentence", err)
		}
		return nil, fmt.Errorf("get sentence by id: %w", err)
	}
	return &s, nil
}

func (r *SentenceRepository) ListByParagraph(ctx context.Context, paragraphID string) ([]domain.Sentence, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+sentenceColumns+`
FROM sentences
WHERE paragraph_id = $1
ORDER BY order_index
`, paragraphID)
	if err != nil {
		return nil, fmt.Errorf("list sentences: %w", err)
	}
	return collectSentences(rows)
}

func (r *SentenceRepository) ListByChapter(ctx context.Context, chapterID string) ([]domain.Sentence, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT s.id, s.paragraph_id, s.order_index, s.content, s.image_prompt,
s.image_url, s.audio_url, s.start_ms, s.duration_ms, s.created_at, s.updated_at
FROM sentences s
JOIN paragraphs p ON p.id = s.paragraph_id
WHERE p.chapter_id = $1
ORDER BY p.order_index, s.order_index
`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("list chapter sentences: %w", err)
	}
	return collectSentences(rows)
}

func (r *SentenceRepository) UpdateContent(ctx context.Context, id, content string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE sentences SET content = $2, updated_at = $3 WHERE id = $1
`, id, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update sentence: %w", err)
	}
	return requireRow(result, "sentence", id)
}

func (r *SentenceRepository) SavePrompt(ctx context.Context, id, imagePrompt string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE sentences SET image_prompt = $2, updated_at = $3 WHERE id = $1
`, id, imagePrompt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save sentence prompt: %w", err)
	}
	return requireRow(result, "sentence", id)
}

func (r *SentenceRepository) SaveImage(ctx context.Context, id, imageURL string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE sentences SET image_url = $2, updated_at = $3 WHERE id = $1
`, id, imageURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save sentence image: %w", err)
	}
	return requireRow(result, "sentence", id)
}

func (r *SentenceRepository) SaveAudio(ctx context.Context, id, audioURL string, durationMs int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE sentences SET audio_url = $2, duration_ms = $3, updated_at = $4 WHERE id = $1
`, id, audioURL, durationMs, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save sentence audio: %w", err)
	}
	return requireRow(result, "sentence", id)
}

func collectSentences(rows *sql.Rows) ([]domain.Sentence, error) {
	defer rows.Close()

	out := make([]domain.Sentence, 0)
	for rows.Next() {
		s, err := scanSentence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sentence: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sentences: %w", err)
	}
	return out, nil
}

func scanSentence(row rowScanner) (domain.Sentence, error) {
	var s domain.Sentence
	err := row.Scan(
		&s.ID,
		&s.ParagraphID,
		&s.OrderIndex,
		&s.Content,
		&s.ImagePrompt,
		&s.ImageURL,
		&s.AudioURL,
		&s.StartMs,
		&s.DurationMs,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return domain.Sentence{}, err
	}
	return s, nil
}
