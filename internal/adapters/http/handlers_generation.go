package httpadapter

import (
	"context"
	"net/http"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

func (rt *Router) generatePrompts(w http.ResponseWriter, r *http.Request) {
	rt.startGeneration(w, r, rt.generation.StartPrompts)
}

func (rt *Router) generateAudio(w http.ResponseWriter, r *http.Request) {
	rt.startGeneration(w, r, rt.generation.StartAudio)
}

func (rt *Router) generateImages(w http.ResponseWriter, r *http.Request) {
	rt.startGeneration(w, r, rt.generation.StartImages)
}

func (rt *Router) startGeneration(
	w http.ResponseWriter,
	r *http.Request,
	start func(context.Context, domain.GenerationRequest) (*domain.GenerationTask, error),
) {
	var req domain.GenerationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	task, err := start(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.ObserveTaskStarted(rt.cfg.Service, string(task.Kind))
	}
	writeSuccess(w, http.StatusCreated, task, "generation task dispatched")
}

func (rt *Router) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := rt.tasks.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, task, "")
}

func (rt *Router) revokeTask(w http.ResponseWriter, r *http.Request) {
	if err := rt.tasks.Revoke(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "task revoked")
}
