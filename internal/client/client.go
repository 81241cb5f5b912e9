package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

// Client is the typed REST client used by the studio CLI and the background
// pollers. Every call unwraps the server envelope: the data payload on
// success, a structured *APIError otherwise.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// APIError carries the server's structured error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs the bearer token used on subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// Login exchanges credentials for a session and installs its token.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var session Session
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": username, "password": password}, &session)
	if err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return &session, nil
}

func (c *Client) Register(ctx context.Context, username, password string) (*domain.User, error) {
	var user domain.User
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/register",
		map[string]string{"username": username, "password": password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) RegistrationOpen(ctx context.Context) (bool, error) {
	var status struct {
		RegistrationOpen bool `json:"registration_open"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/auth/registration-status", nil, &status); err != nil {
		return false, err
	}
	return status.RegistrationOpen, nil
}

// UploadResult pairs the created project with its parse task so callers can
// start polling immediately.
type UploadResult struct {
	Project domain.Project        `json:"project"`
	Task    domain.GenerationTask `json:"task"`
}

func (c *Client) UploadProject(ctx context.Context, title, description, filename string, body io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return nil, fmt.Errorf("copy upload body: %w", err)
	}
	if title != "" {
		_ = mw.WriteField("title", title)
	}
	if description != "" {
		_ = mw.WriteField("description", description)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result UploadResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := c.call(ctx, http.MethodGet, "/api/v1/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var project domain.Project
	if err := c.call(ctx, http.MethodGet, "/api/v1/projects/"+url.PathEscape(id), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) ProjectStatus(ctx context.Context, id string) (*domain.ProjectState, error) {
	var state domain.ProjectState
	if err := c.call(ctx, http.MethodGet, "/api/v1/projects/"+url.PathEscape(id)+"/status", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) UpdateProject(ctx context.Context, id, title, description string) (*domain.Project, error) {
	var project domain.Project
	err := c.call(ctx, http.MethodPut, "/api/v1/projects/"+url.PathEscape(id),
		map[string]string{"title": title, "description": description}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) ArchiveProject(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, "/api/v1/projects/"+url.PathEscape(id)+"/archive", nil, nil)
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/projects/"+url.PathEscape(id), nil, nil)
}

// DownloadStoryboard streams the xlsx export to destPath. When destPath is
// empty the server-suggested filename from Content-Disposition is used in the
// working directory. Returns the path written.
func (c *Client) DownloadStoryboard(ctx context.Context, projectID, destPath string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/projects/"+url.PathEscape(projectID)+"/export", nil)
	if err != nil {
		return "", err
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET export: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		var envelope struct {
			Error *struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		apiErr := &APIError{Status: res.StatusCode, Code: "UNKNOWN", Message: "export failed"}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return "", apiErr
	}

	if destPath == "" {
		destPath = "storyboard.xlsx"
		if _, params, err := mime.ParseMediaType(res.Header.Get("Content-Disposition")); err == nil {
			if name := filepath.Base(params["filename"]); name != "" && name != "." && name != "/" {
				destPath = name
			}
		}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, res.Body); err != nil {
		return "", fmt.Errorf("write %s: %w", destPath, err)
	}
	return destPath, nil
}

func (c *Client) ListChapters(ctx context.Context, projectID string) ([]domain.Chapter, error) {
	var chapters []domain.Chapter
	if err := c.call(ctx, http.MethodGet, "/api/v1/projects/"+url.PathEscape(projectID)+"/chapters", nil, &chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}

func (c *Client) GetChapter(ctx context.Context, id string) (*domain.Chapter, error) {
	var chapter domain.Chapter
	if err := c.call(ctx, http.MethodGet, "/api/v1/chapters/"+url.PathEscape(id), nil, &chapter); err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (c *Client) UpdateChapter(ctx context.Context, id, title, content string) (*domain.Chapter, error) {
	var chapter domain.Chapter
	err := c.call(ctx, http.MethodPut, "/api/v1/chapters/"+url.PathEscape(id),
		map[string]string{"title": title, "content": content}, &chapter)
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (c *Client) ConfirmChapter(ctx context.Context, id string) (*domain.Chapter, error) {
	var chapter domain.Chapter
	if err := c.call(ctx, http.MethodPut, "/api/v1/chapters/"+url.PathEscape(id)+"/confirm", nil, &chapter); err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (c *Client) DeleteChapter(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/chapters/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListParagraphs(ctx context.Context, chapterID string) ([]domain.Paragraph, error) {
	var paragraphs []domain.Paragraph
	if err := c.call(ctx, http.MethodGet, "/api/v1/paragraphs?chapter_id="+url.QueryEscape(chapterID), nil, &paragraphs); err != nil {
		return nil, err
	}
	return paragraphs, nil
}

func (c *Client) CreateParagraph(ctx context.Context, chapterID, content string, orderIndex int) (*domain.Paragraph, error) {
	var paragraph domain.Paragraph
	err := c.call(ctx, http.MethodPost, "/api/v1/paragraphs", map[string]any{
		"chapter_id":  chapterID,
		"content":     content,
		"order_index": orderIndex,
	}, &paragraph)
	if err != nil {
		return nil, err
	}
	return &paragraph, nil
}

func (c *Client) UpdateParagraph(ctx context.Context, id, content string) (*domain.Paragraph, error) {
	var paragraph domain.Paragraph
	err := c.call(ctx, http.MethodPut, "/api/v1/paragraphs/"+url.PathEscape(id),
		map[string]string{"content": content}, &paragraph)
	if err != nil {
		return nil, err
	}
	return &paragraph, nil
}

func (c *Client) DeleteParagraph(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/paragraphs/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListSentences(ctx context.Context, paragraphID string) ([]domain.Sentence, error) {
	var sentences []domain.Sentence
	if err := c.call(ctx, http.MethodGet, "/api/v1/sentences?paragraph_id="+url.QueryEscape(paragraphID), nil, &sentences); err != nil {
		return nil, err
	}
	return sentences, nil
}

func (c *Client) UpdateSentence(ctx context.Context, id, content string) (*domain.Sentence, error) {
	var sentence domain.Sentence
	err := c.call(ctx, http.MethodPut, "/api/v1/sentences/"+url.PathEscape(id),
		map[string]string{"content": content}, &sentence)
	if err != nil {
		return nil, err
	}
	return &sentence, nil
}

func (c *Client) GeneratePrompts(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationTask, error) {
	return c.startGeneration(ctx, "/api/v1/prompt/generate-prompts", req)
}

func (c *Client) GenerateAudio(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationTask, error) {
	return c.startGeneration(ctx, "/api/v1/audio/generate-audio", req)
}

func (c *Client) GenerateImages(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationTask, error) {
	return c.startGeneration(ctx, "/api/v1/image/generate-images", req)
}

func (c *Client) startGeneration(ctx context.Context, path string, req domain.GenerationRequest) (*domain.GenerationTask, error) {
	var task domain.GenerationTask
	if err := c.call(ctx, http.MethodPost, path, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*domain.GenerationTask, error) {
	var task domain.GenerationTask
	if err := c.call(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) RevokeTask(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListCredentials(ctx context.Context) ([]domain.Credential, error) {
	var creds []domain.Credential
	if err := c.call(ctx, http.MethodGet, "/api/v1/credentials", nil, &creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func (c *Client) CreateCredential(ctx context.Context, name, provider, apiKey, baseURL, defaultModel string) (*domain.Credential, error) {
	var cred domain.Credential
	err := c.call(ctx, http.MethodPost, "/api/v1/credentials", map[string]string{
		"name":          name,
		"provider":      provider,
		"api_key":       apiKey,
		"base_url":      baseURL,
		"default_model": defaultModel,
	}, &cred)
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (c *Client) DeleteCredential(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/credentials/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CredentialModels(ctx context.Context, id string) ([]string, error) {
	var models []string
	if err := c.call(ctx, http.MethodGet, "/api/v1/credentials/"+url.PathEscape(id)+"/models", nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

func (c *Client) CredentialVoices(ctx context.Context, id, model string) ([]string, error) {
	var voices []string
	path := "/api/v1/credentials/" + url.PathEscape(id) + "/voices?model=" + url.QueryEscape(model)
	if err := c.call(ctx, http.MethodGet, path, nil, &voices); err != nil {
		return nil, err
	}
	return voices, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode envelope (%d): %w", res.StatusCode, err)
	}

	if !envelope.Success {
		apiErr := &APIError{Status: res.StatusCode, Code: "UNKNOWN", Message: "request failed"}
		if envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if out == nil || len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
