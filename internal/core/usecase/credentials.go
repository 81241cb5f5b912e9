package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/core/ports"
)

// CredentialUseCase manages provider credentials. Listings always mask the
// stored key; the raw key is only ever handed to the provider client.
type CredentialUseCase struct {
	credentials ports.CredentialRepository
	catalog     ports.ModelCatalog
	logger      *slog.Logger
}

func NewCredentialUseCase(credentials ports.CredentialRepository, catalog ports.ModelCatalog, logger *slog.Logger) *CredentialUseCase {
	return &CredentialUseCase{credentials: credentials, catalog: catalog, logger: logger}
}

func (uc *CredentialUseCase) Create(ctx context.Context, name, provider, apiKey, baseURL, defaultModel string) (*domain.Credential, error) {
	name = strings.TrimSpace(name)
	provider = strings.TrimSpace(strings.ToLower(provider))
	if name == "" || provider == "" || apiKey == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create credential", fmt.Errorf("name, provider and api_key are required"))
	}

	now := time.Now().UTC()
	cred := &domain.Credential{
		ID:           uuid.NewString(),
		Name:         name,
		Provider:     provider,
		APIKey:       apiKey,
		BaseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		DefaultModel: defaultModel,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.credentials.Create(ctx, cred); err != nil {
		return nil, err
	}
	uc.logger.Info("credential created",
		slog.String("credential_id", cred.ID),
		slog.String("provider", provider))

	masked := cred.Masked()
	return &masked, nil
}

func (uc *CredentialUseCase) List(ctx context.Context) ([]domain.Credential, error) {
	creds, err := uc.credentials.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range creds {
		creds[i] = creds[i].Masked()
	}
	return creds, nil
}

func (uc *CredentialUseCase) Delete(ctx context.Context, id string) error {
	return uc.credentials.Delete(ctx, id)
}

func (uc *CredentialUseCase) Models(ctx context.Context, id string) ([]string, error) {
	cred, err := uc.credentials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.catalog.ListModels(ctx, cred)
}

func (uc *CredentialUseCase) Voices(ctx context.Context, id, model string) ([]string, error) {
	cred, err := uc.credentials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.catalog.Voices(cred.Provider, model), nil
}
