package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		t.Fatalf("encode envelope: %v", err)
	}
}

// runCommand executes the CLI against url, capturing stdout. HOME points at a
// temp dir so the token file never touches the real one.
func runCommand(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", url}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestProjectsCommandRendersTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/projects" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		writeEnvelope(t, w, []domain.Project{
			{ID: "p1", Title: "War Novel", Status: domain.ProjectParsed, ProcessingProgress: 100, ChapterCount: 12, WordCount: 80412},
		})
	}))
	defer srv.Close()

	out, err := runCommand(t, srv.URL, "projects")
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	for _, want := range []string{"p1", "War Novel", "parsed", "80412"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, map[string]any{
			"token":      "cli-session-token",
			"expires_at": time.Now().Add(time.Hour).Format(time.RFC3339),
			"user":       domain.User{ID: "u1", Username: "ana"},
		})
	}))
	defer srv.Close()

	out, err := runCommand(t, srv.URL, "login", "--username", "ana", "--password", "hunter2-long")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in as ana") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	raw, err := os.ReadFile(filepath.Join(os.Getenv("HOME"), ".storyreel", "token"))
	if err != nil {
		t.Fatalf("read token file: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "cli-session-token" {
		t.Fatalf("unexpected token %q", raw)
	}
}

func TestTaskWatchReportsTerminalTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, domain.GenerationTask{
			ID: "t1", Kind: domain.TaskPrompts, Status: domain.TaskSuccess, Progress: 100, Result: "42 prompts",
		})
	}))
	defer srv.Close()

	out, err := runCommand(t, srv.URL, "tasks", "watch", "t1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !strings.Contains(out, "SUCCESS") || !strings.Contains(out, "42 prompts") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTaskWatchFailsOnFailedTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, domain.GenerationTask{
			ID: "t1", Kind: domain.TaskImages, Status: domain.TaskFailure, ErrorMessage: "provider unreachable",
		})
	}))
	defer srv.Close()

	_, err := runCommand(t, srv.URL, "tasks", "watch", "t1")
	if err == nil || !strings.Contains(err.Error(), "provider unreachable") {
		t.Fatalf("expected failure error, got %v", err)
	}
}

func TestTaskWatchFailsOnRevokedTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, domain.GenerationTask{
			ID: "t1", Kind: domain.TaskAudio, Status: domain.TaskRevoked,
		})
	}))
	defer srv.Close()

	_, err := runCommand(t, srv.URL, "tasks", "watch", "t1")
	if err == nil || !strings.Contains(err.Error(), "REVOKED") {
		t.Fatalf("expected revoked error, got %v", err)
	}
}

func TestPollIntervalsComeFromEnvironment(t *testing.T) {
	t.Setenv("TASK_POLL_INTERVAL", "150ms")
	t.Setenv("PROJECT_POLL_INTERVAL", "250ms")

	ctx := newCommandContext(nil)
	if got := ctx.taskPollInterval(); got != 150*time.Millisecond {
		t.Fatalf("task poll interval = %s, want 150ms", got)
	}
	if got := ctx.projectPollInterval(); got != 250*time.Millisecond {
		t.Fatalf("project poll interval = %s, want 250ms", got)
	}
}

func TestGenerateRequiresScopeFlags(t *testing.T) {
	_, err := runCommand(t, "http://localhost:0", "generate", "prompts",
		"--project", "p1", "--credential", "c1")
	if err == nil || !strings.Contains(err.Error(), "--chapter or --sentence") {
		t.Fatalf("expected scope error, got %v", err)
	}
}
