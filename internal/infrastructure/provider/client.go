package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
	"github.com/storyreelhq/storyreel/internal/infrastructure/resilience"
)

// Client talks to OpenAI-compatible generation backends. The credential
// chosen by the user decides base URL, key and default model; the client
// itself is stateless across providers.
type Client struct {
	executor *resilience.Executor
	timeout  time.Duration
}

func NewClient(executor *resilience.Executor) *Client {
	return &Client{
		executor: executor,
		timeout:  120 * time.Second,
	}
}

const promptInstruction = `You are a storyboard artist. Produce one concise English
image-generation prompt (under 60 words) depicting the following sentence from a novel.
Describe the scene visually. Reply with the prompt only.`

func (c *Client) GeneratePrompt(ctx context.Context, cred *domain.Credential, model, sentence string) (string, error) {
	model = pickModel(model, cred)

	request := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": promptInstruction},
			{"role": "user", "content": sentence},
		},
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err := c.execute(ctx, "provider.prompt", func(ctx context.Context) error {
		return c.postJSON(ctx, cred, "/v1/chat/completions", request, &response, "prompt")
	})
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("provider %s returned no choices", cred.Provider)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (c *Client) GenerateImage(ctx context.Context, cred *domain.Credential, model, prompt string) ([]byte, error) {
	request := map[string]any{
		"model":           pickModel(model, cred),
		"prompt":          prompt,
		"n":               1,
		"size":            "1024x1024",
		"response_format": "b64_json",
	}

	var response struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	err := c.execute(ctx, "provider.image", func(ctx context.Context) error {
		return c.postJSON(ctx, cred, "/v1/images/generations", request, &response, "image")
	})
	if err != nil {
		return nil, err
	}
	if len(response.Data) == 0 || response.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("provider %s returned no image data", cred.Provider)
	}
	raw, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return raw, nil
}

func (c *Client) GenerateSpeech(ctx context.Context, cred *domain.Credential, model, voice, text string) ([]byte, int, error) {
	request := map[string]any{
		"model": pickModel(model, cred),
		"voice": voice,
		"input": text,
	}

	var audio []byte
	var durationMs int
	err := c.execute(ctx, "provider.speech", func(ctx context.Context) error {
		raw, headerDuration, err := c.postBinary(ctx, cred, "/v1/audio/speech", request, "speech")
		if err != nil {
			return err
		}
		audio = raw
		durationMs = headerDuration
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return audio, durationMs, nil
}

// ListModels queries the provider's model index. Callers fall back to the
// static catalog when this fails, so errors here are not wrapped as fatal.
func (c *Client) ListModels(ctx context.Context, cred *domain.Credential) ([]string, error) {
	var response struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, cred, "/v1/models", &response, "models"); err != nil {
		return nil, err
	}
	models := make([]string, 0, len(response.Data))
	for _, m := range response.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, fn(ctx))
	}
	return wrapTemporaryIfNeeded(operation, c.executor.Execute(ctx, operation, fn, classifyProviderError))
}

func pickModel(model string, cred *domain.Credential) string {
	if model != "" {
		return model
	}
	if cred.DefaultModel != "" {
		return cred.DefaultModel
	}
	return defaultModelFor(cred.Provider)
}
