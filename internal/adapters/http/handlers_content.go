package httpadapter

import (
	"net/http"
)

func (rt *Router) listChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := rt.content.ListChapters(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, chapters, "")
}

func (rt *Router) getChapter(w http.ResponseWriter, r *http.Request) {
	chapter, err := rt.content.GetChapter(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, chapter, "")
}

func (rt *Router) updateChapter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	chapter, err := rt.content.UpdateChapter(r.Context(), r.PathValue("id"), req.Title, req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, chapter, "")
}

func (rt *Router) confirmChapter(w http.ResponseWriter, r *http.Request) {
	chapter, err := rt.content.ConfirmChapter(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.ObserveChapterConfirmed(rt.cfg.Service)
	}
	writeSuccess(w, http.StatusOK, chapter, "chapter confirmed")
}

func (rt *Router) deleteChapter(w http.ResponseWriter, r *http.Request) {
	if err := rt.content.DeleteChapter(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "chapter deleted")
}

func (rt *Router) listParagraphs(w http.ResponseWriter, r *http.Request) {
	chapterID := r.URL.Query().Get("chapter_id")
	if chapterID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "chapter_id query parameter is required")
		return
	}
	paragraphs, err := rt.content.ListParagraphs(r.Context(), chapterID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, paragraphs, "")
}

func (rt *Router) createParagraph(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChapterID  string `json:"chapter_id"`
		Content    string `json:"content"`
		OrderIndex int    `json:"order_index"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	paragraph, err := rt.content.CreateParagraph(r.Context(), req.ChapterID, req.Content, req.OrderIndex)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, paragraph, "")
}

func (rt *Router) updateParagraph(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	paragraph, err := rt.content.UpdateParagraph(r.Context(), r.PathValue("id"), req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, paragraph, "")
}

func (rt *Router) deleteParagraph(w http.ResponseWriter, r *http.Request) {
	if err := rt.content.DeleteParagraph(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "paragraph deleted")
}

func (rt *Router) listSentences(w http.ResponseWriter, r *http.Request) {
	paragraphID := r.URL.Query().Get("paragraph_id")
	if paragraphID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "paragraph_id query parameter is required")
		return
	}
	sentences, err := rt.content.ListSentences(r.Context(), paragraphID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, sentences, "")
}

func (rt *Router) updateSentence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sentence, err := rt.content.UpdateSentence(r.Context(), r.PathValue("id"), req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, sentence, "")
}
