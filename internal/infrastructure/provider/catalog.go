package provider

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

// ProviderMinimax is the TTS vendor with per-model voice presets; its voices
// are addressed as "{model}:{voice_id}". Every other provider exposes the
// generic voice set.
const ProviderMinimax = "minimax"

var defaultModels = map[string][]string{
	"openai":        {"gpt-4o", "gpt-4o-mini", "dall-e-3", "tts-1", "tts-1-hd"},
	ProviderMinimax: {"speech-01-turbo", "speech-01-hd", "speech-02-hd"},
	"stability":     {"stable-diffusion-3", "stable-image-core"},
}

var genericVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

var minimaxVoiceIDs = []string{
	"male-qn-qingse",
	"female-shaonv",
	"female-yujie",
	"male-badao",
	"presenter_male",
	"presenter_female",
}

// Catalog answers model and voice questions for credentials. An optional
// YAML file extends or overrides the built-in model sets.
type Catalog struct {
	client *Client
	models map[string][]string
}

type catalogFile struct {
	Providers map[string]struct {
		Models []string `yaml:"models"`
	} `yaml:"providers"`
}

func NewCatalog(client *Client, catalogPath string) *Catalog {
	models := make(map[string][]string, len(defaultModels))
	for provider, list := range defaultModels {
		models[provider] = append([]string(nil), list...)
	}

	if catalogPath != "" {
		if err := mergeCatalogFile(models, catalogPath); err != nil {
			slog.Warn("provider_catalog_load_failed", "path", catalogPath, "error", err)
		}
	}

	return &Catalog{client: client, models: models}
}

func mergeCatalogFile(models map[string][]string, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	for provider, entry := range file.Providers {
		if len(entry.Models) > 0 {
			models[provider] = append([]string(nil), entry.Models...)
		}
	}
	return nil
}

// ListModels asks the provider first and falls back to the static set when
// the endpoint is unavailable, so credential dialogs always have options.
func (c *Catalog) ListModels(ctx context.Context, cred *domain.Credential) ([]string, error) {
	if c.client != nil {
		models, err := c.client.ListModels(ctx, cred)
		if err == nil && len(models) > 0 {
			return models, nil
		}
		if err != nil {
			slog.Warn("provider_models_fallback", "provider", cred.Provider, "error", err)
		}
	}
	return c.fallbackModels(cred), nil
}

func (c *Catalog) fallbackModels(cred *domain.Credential) []string {
	if list, ok := c.models[cred.Provider]; ok {
		return append([]string(nil), list...)
	}
	if cred.DefaultModel != "" {
		return []string{cred.DefaultModel}
	}
	return append([]string(nil), c.models["openai"]...)
}

// Voices derives the selectable voice list for a provider/model pair.
func (c *Catalog) Voices(provider, model string) []string {
	if provider == ProviderMinimax {
		if model == "" {
			model = defaultModelFor(provider)
		}
		out := make([]string, 0, len(minimaxVoiceIDs))
		for _, id := range minimaxVoiceIDs {
			out = append(out, model+":"+id)
		}
		return out
	}
	return append([]string(nil), genericVoices...)
}

func defaultModelFor(provider string) string {
	if list, ok := defaultModels[provider]; ok && len(list) > 0 {
		return list[0]
	}
	return "gpt-4o-mini"
}
