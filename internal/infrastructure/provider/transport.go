package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

const defaultBaseURL = "https://api.openai.com"

func (c *Client) baseURL(cred *domain.Credential) string {
	if cred.BaseURL != "" {
		return strings.TrimRight(cred.BaseURL, "/")
	}
	return defaultBaseURL
}

func (c *Client) newRequest(ctx context.Context, cred *domain.Credential, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL(cred)+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) httpClient() *http.Client {
	return &http.Client{Timeout: c.timeout}
}

func (c *Client) postJSON(ctx context.Context, cred *domain.Credential, path string, payload, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := c.newRequest(ctx, cred, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("provider %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newStatusError(operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// postBinary posts JSON and reads a raw binary response (audio). Duration is
// taken from the X-Audio-Duration-Ms header when the backend sends one.
func (c *Client) postBinary(ctx context.Context, cred *domain.Credential, path string, payload any, operation string) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := c.newRequest(ctx, cred, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("provider %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, 0, newStatusError(operation, resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s response: %w", operation, err)
	}

	durationMs := 0
	if h := resp.Header.Get("X-Audio-Duration-Ms"); h != "" {
		if parsed, err := strconv.Atoi(h); err == nil {
			durationMs = parsed
		}
	}
	return raw, durationMs, nil
}

func (c *Client) getJSON(ctx context.Context, cred *domain.Credential, path string, out any, operation string) error {
	req, err := c.newRequest(ctx, cred, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("provider %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newStatusError(operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func newStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}
