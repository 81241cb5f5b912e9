package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type userContextKey struct{}

func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userContextKey{}).(string)
	return userID
}

// requireAuth verifies the bearer token and stashes the subject user id in
// the request context.
func (rt *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "bearer token required")
			return
		}
		userID, err := rt.auth.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, userID)))
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body")
		return false
	}
	return true
}

func (rt *Router) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := rt.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, user, "account created")
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := rt.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, session, "")
}

func (rt *Router) refresh(w http.ResponseWriter, r *http.Request) {
	session, err := rt.auth.Refresh(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, session, "")
}

// logout exists for client symmetry. Tokens are stateless, so the server has
// nothing to invalidate; the client discards its copy.
func (rt *Router) logout(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, nil, "logged out")
}

func (rt *Router) registrationStatus(w http.ResponseWriter, r *http.Request) {
	open, err := rt.auth.RegistrationOpen(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"registration_open": open}, "")
}
