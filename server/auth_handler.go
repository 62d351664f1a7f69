package server

import (
	"errors"
	"net/http"
	"strings"

	"Trackshelf/core/auth"
	"Trackshelf/logger"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// LoginHandler checks the admin credential and flags the session as admin.
// Both JSON and urlencoded bodies are accepted.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, loginResponse{Message: "Invalid request body"})
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("[Auth] failed to parse login body", logger.ErrorField(err))
		writeJSON(w, http.StatusBadRequest, loginResponse{Message: "Invalid request body"})
		return
	}

	if err := h.admin.Verify(req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn("[Auth] login rejected", logger.String("username", req.Username))
		}
		writeJSON(w, http.StatusUnauthorized, loginResponse{Message: "Invalid credentials"})
		return
	}

	if err := h.sessions.GrantAdmin(w, r); err != nil {
		logger.Error("[Auth] failed to start session", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, loginResponse{Message: "Internal server error"})
		return
	}

	logger.Info("[Auth] admin logged in", logger.String("username", req.Username))
	writeJSON(w, http.StatusOK, loginResponse{Success: true})
}

// LogoutHandler destroys the session. It always succeeds from the client's
// point of view.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		logger.Warn("[Auth] failed to delete session", logger.ErrorField(err))
	}
	writeJSON(w, http.StatusOK, loginResponse{Success: true})
}

// IsAdminHandler reports whether the caller holds an admin session.
func (h *APIHandler) IsAdminHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"isAdmin": h.sessions.IsAdmin(r)})
}

// AdminMiddleware rejects requests without an admin session.
func (h *APIHandler) AdminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.sessions.IsAdmin(r) {
			logger.Warn("[Auth] admin route denied",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path))
			writeError(w, http.StatusForbidden, "Access denied. Admins only.")
			return
		}
		next(w, r)
	}
}
