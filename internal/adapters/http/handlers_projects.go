package httpadapter

import (
	"fmt"
	"net/http"
)

func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	project, task, err := rt.ingest.Upload(
		r.Context(),
		r.FormValue("title"),
		r.FormValue("description"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.ObserveUpload(rt.cfg.Service)
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"project": project,
		"task":    task,
	}, "document accepted for parsing")
}

func (rt *Router) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := rt.projects.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, projects, "")
}

func (rt *Router) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := rt.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, project, "")
}

func (rt *Router) projectStatus(w http.ResponseWriter, r *http.Request) {
	state, err := rt.projects.State(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, state, "")
}

func (rt *Router) updateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	project, err := rt.projects.Update(r.Context(), r.PathValue("id"), req.Title, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, project, "")
}

func (rt *Router) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := rt.projects.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "project deleted")
}

func (rt *Router) archiveProject(w http.ResponseWriter, r *http.Request) {
	if err := rt.projects.Archive(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "project archived")
}

func (rt *Router) exportProject(w http.ResponseWriter, r *http.Request) {
	if rt.exporter == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "export is not enabled")
		return
	}
	workbook, filename, err := rt.exporter.Storyboard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := workbook.WriteTo(w); err != nil {
		// Headers are gone; the truncated download is all we can log.
		return
	}
}
