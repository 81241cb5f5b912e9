package httpadapter

import (
	"net/http"
)

func (rt *Router) listCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := rt.credentials.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, creds, "")
}

func (rt *Router) createCredential(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		Provider     string `json:"provider"`
		APIKey       string `json:"api_key"`
		BaseURL      string `json:"base_url"`
		DefaultModel string `json:"default_model"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	cred, err := rt.credentials.Create(r.Context(), req.Name, req.Provider, req.APIKey, req.BaseURL, req.DefaultModel)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, cred, "credential stored")
}

func (rt *Router) deleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := rt.credentials.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "credential deleted")
}

func (rt *Router) credentialModels(w http.ResponseWriter, r *http.Request) {
	models, err := rt.credentials.Models(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, models, "")
}

func (rt *Router) credentialVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := rt.credentials.Voices(r.Context(), r.PathValue("id"), r.URL.Query().Get("model"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, voices, "")
}
