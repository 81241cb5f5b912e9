package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO credentials (id, name, provider, api_key, base_url, default_model, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, c.ID, c.Name, c.Provider, c.APIKey, c.BaseURL, c.DefaultModel, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, provider, api_key, base_url, default_model, created_at, updated_at
FROM credentials
WHERE id = $1
`, id)

	var c domain.Credential
	err := row.Scan(&c.ID, &c.Name, &c.Provider, &c.APIKey, &c.BaseURL, &c.DefaultModel, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get credential", err)
		}
		return nil, fmt.Errorf("get credential by id: %w", err)
	}
	return &c, nil
}

func (r *CredentialRepository) List(ctx context.Context) ([]domain.Credential, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, provider, api_key, base_url, default_model, created_at, updated_at
FROM credentials
ORDER BY created_at
`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Credential, 0)
	for rows.Next() {
		var c domain.Credential
		if err := rows.Scan(&c.ID, &c.Name, &c.Provider, &c.APIKey, &c.BaseURL, &c.DefaultModel, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return out, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return requireRow(result, "credential", id)
}
