package httpadapter

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/storyreelhq/storyreel/internal/core/ports"
	"github.com/storyreelhq/storyreel/internal/observability/metrics"
)

// StoryboardExporter renders a project's storyboard as a downloadable
// spreadsheet.
type StoryboardExporter interface {
	Storyboard(ctx context.Context, projectID string) (io.WriterTo, string, error)
}

type RouterConfig struct {
	Service       string
	RateLimitRPS  float64
	RateBurst     int
	MaxConcurrent int
	// MaxUploadBytes bounds multipart uploads; zero means 64 MiB.
	MaxUploadBytes int64
	// AssetsDir, when set, is served read-only under /assets/.
	AssetsDir string
}

type Router struct {
	auth        ports.AuthService
	ingest      ports.ProjectIngestor
	projects    ports.ProjectService
	content     ports.ContentService
	generation  ports.GenerationService
	tasks       ports.TaskService
	credentials ports.CredentialService
	exporter    StoryboardExporter
	taskSocket  http.Handler
	metrics     *metrics.HTTPServerMetrics
	cfg         RouterConfig
}

func NewRouter(
	auth ports.AuthService,
	ingest ports.ProjectIngestor,
	projects ports.ProjectService,
	content ports.ContentService,
	generation ports.GenerationService,
	tasks ports.TaskService,
	credentials ports.CredentialService,
	exporter StoryboardExporter,
	taskSocket http.Handler,
	m *metrics.HTTPServerMetrics,
	cfg RouterConfig,
) *Router {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 64 << 20
	}
	return &Router{
		auth:        auth,
		ingest:      ingest,
		projects:    projects,
		content:     content,
		generation:  generation,
		tasks:       tasks,
		credentials: credentials,
		exporter:    exporter,
		taskSocket:  taskSocket,
		metrics:     m,
		cfg:         cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	if rt.cfg.AssetsDir != "" {
		mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(rt.cfg.AssetsDir))))
	}

	mux.HandleFunc("POST /api/v1/auth/register", rt.register)
	mux.HandleFunc("POST /api/v1/auth/login", rt.login)
	mux.HandleFunc("GET /api/v1/auth/registration-status", rt.registrationStatus)
	mux.HandleFunc("POST /api/v1/auth/refresh", rt.requireAuth(rt.refresh))
	mux.HandleFunc("POST /api/v1/auth/logout", rt.requireAuth(rt.logout))

	mux.HandleFunc("POST /api/v1/upload", rt.requireAuth(rt.upload))

	mux.HandleFunc("GET /api/v1/projects", rt.requireAuth(rt.listProjects))
	mux.HandleFunc("GET /api/v1/projects/{id}", rt.requireAuth(rt.getProject))
	mux.HandleFunc("GET /api/v1/projects/{id}/status", rt.requireAuth(rt.projectStatus))
	mux.HandleFunc("PUT /api/v1/projects/{id}", rt.requireAuth(rt.updateProject))
	mux.HandleFunc("DELETE /api/v1/projects/{id}", rt.requireAuth(rt.deleteProject))
	mux.HandleFunc("POST /api/v1/projects/{id}/archive", rt.requireAuth(rt.archiveProject))
	mux.HandleFunc("GET /api/v1/projects/{id}/export", rt.requireAuth(rt.exportProject))
	mux.HandleFunc("GET /api/v1/projects/{id}/chapters", rt.requireAuth(rt.listChapters))

	mux.HandleFunc("GET /api/v1/chapters/{id}", rt.requireAuth(rt.getChapter))
	mux.HandleFunc("PUT /api/v1/chapters/{id}", rt.requireAuth(rt.updateChapter))
	mux.HandleFunc("PUT /api/v1/chapters/{id}/confirm", rt.requireAuth(rt.confirmChapter))
	mux.HandleFunc("DELETE /api/v1/chapters/{id}", rt.requireAuth(rt.deleteChapter))

	mux.HandleFunc("GET /api/v1/paragraphs", rt.requireAuth(rt.listParagraphs))
	mux.HandleFunc("POST /api/v1/paragraphs", rt.requireAuth(rt.createParagraph))
	mux.HandleFunc("PUT /api/v1/paragraphs/{id}", rt.requireAuth(rt.updateParagraph))
	mux.HandleFunc("DELETE /api/v1/paragraphs/{id}", rt.requireAuth(rt.deleteParagraph))

	mux.HandleFunc("GET /api/v1/sentences", rt.requireAuth(rt.listSentences))
	mux.HandleFunc("PUT /api/v1/sentences/{id}", rt.requireAuth(rt.updateSentence))

	mux.HandleFunc("POST /api/v1/prompt/generate-prompts", rt.requireAuth(rt.generatePrompts))
	mux.HandleFunc("POST /api/v1/audio/generate-audio", rt.requireAuth(rt.generateAudio))
	mux.HandleFunc("POST /api/v1/image/generate-images", rt.requireAuth(rt.generateImages))

	mux.HandleFunc("GET /api/v1/tasks/{id}", rt.requireAuth(rt.getTask))
	mux.HandleFunc("DELETE /api/v1/tasks/{id}", rt.requireAuth(rt.revokeTask))

	mux.HandleFunc("GET /api/v1/credentials", rt.requireAuth(rt.listCredentials))
	mux.HandleFunc("POST /api/v1/credentials", rt.requireAuth(rt.createCredential))
	mux.HandleFunc("DELETE /api/v1/credentials/{id}", rt.requireAuth(rt.deleteCredential))
	mux.HandleFunc("GET /api/v1/credentials/{id}/models", rt.requireAuth(rt.credentialModels))
	mux.HandleFunc("GET /api/v1/credentials/{id}/voices", rt.requireAuth(rt.credentialVoices))

	if rt.taskSocket != nil {
		mux.Handle("GET /api/v1/ws/tasks/{id}", rt.taskSocket)
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.Service, handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.MaxConcurrent, 50*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateBurst)
	handler = accessLogMiddleware(handler)
	handler = recoveryMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
