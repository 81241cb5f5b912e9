package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

func envelopeOK(t *testing.T, w http.ResponseWriter, status int, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		t.Fatalf("encode envelope: %v", err)
	}
}

func envelopeErr(t *testing.T, w http.ResponseWriter, status int, code, message string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	}); err != nil {
		t.Fatalf("encode envelope: %v", err)
	}
}

func TestClientLoginInstallsToken(t *testing.T) {
	var seenAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode login body: %v", err)
		}
		if body["username"] != "ana" || body["password"] != "hunter2-long" {
			envelopeErr(t, w, http.StatusUnauthorized, "UNAUTHORIZED", "bad credentials")
			return
		}
		envelopeOK(t, w, http.StatusOK, Session{
			Token:     "session-token",
			ExpiresAt: time.Now().Add(time.Hour),
			User:      &domain.User{ID: "u1", Username: "ana"},
		})
	})
	mux.HandleFunc("GET /api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		envelopeOK(t, w, http.StatusOK, []domain.Project{{ID: "p1", Title: "Demo"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	session, err := c.Login(context.Background(), "ana", "hunter2-long")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.User == nil || session.User.Username != "ana" {
		t.Fatalf("unexpected session user: %+v", session.User)
	}

	projects, err := c.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != "p1" {
		t.Fatalf("unexpected projects: %+v", projects)
	}
	if seenAuth != "Bearer session-token" {
		t.Fatalf("expected bearer token, got %q", seenAuth)
	}
}

func TestClientExtractsStructuredErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelopeErr(t, w, http.StatusConflict, "CHAPTER_CONFIRMED", "chapter is confirmed")
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.UpdateChapter(context.Background(), "ch1", "Title", "Content")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Code != "CHAPTER_CONFIRMED" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if !strings.Contains(apiErr.Error(), "chapter is confirmed") {
		t.Fatalf("error string should carry the message: %v", apiErr)
	}
}

func TestClientUploadSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "novel.txt" {
			t.Fatalf("unexpected filename %q", header.Filename)
		}
		if got := r.FormValue("title"); got != "My Novel" {
			t.Fatalf("unexpected title %q", got)
		}
		envelopeOK(t, w, http.StatusCreated, UploadResult{
			Project: domain.Project{ID: "p1", Title: "My Novel"},
			Task:    domain.GenerationTask{ID: "t1", Kind: domain.TaskParse, Status: domain.TaskPending},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.UploadProject(context.Background(), "My Novel", "", "novel.txt", strings.NewReader("Once upon a time."))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.Project.ID != "p1" || result.Task.Kind != domain.TaskParse {
		t.Fatalf("unexpected upload result: %+v", result)
	}
}

func TestClientStartGenerationPostsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/audio/generate-audio" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		var req domain.GenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Voice != "alloy" || len(req.SentenceIDs) != 2 {
			t.Fatalf("unexpected request: %+v", req)
		}
		envelopeOK(t, w, http.StatusCreated, domain.GenerationTask{
			ID: "t9", Kind: domain.TaskAudio, Status: domain.TaskPending,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	task, err := c.GenerateAudio(context.Background(), domain.GenerationRequest{
		ProjectID:    "p1",
		SentenceIDs:  []string{"s1", "s2"},
		CredentialID: "cred1",
		Voice:        "alloy",
	})
	if err != nil {
		t.Fatalf("generate audio: %v", err)
	}
	if task.ID != "t9" {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestClientNilDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelopeOK(t, w, http.StatusOK, nil)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.DeleteProject(context.Background(), "p1"); err != nil {
		t.Fatalf("delete project: %v", err)
	}
}
