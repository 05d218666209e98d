package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hearth/internal/auth"
	"hearth/internal/core"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		unprocessable(w, err.Error())
		return
	}

	user := core.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         sanitize(req.Name),
		PasswordHash: hash,
		Role:         core.RoleMember,
		CreatedAt:    time.Now(),
	}
	if err := user.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.store.CreateUser(r.Context(), user)
	if err != nil {
		respondError(w, r, err)
		return
	}
	user.ID = id

	slog.InfoContext(r.Context(), "User registered", "user_id", id, "email", user.Email)
	s.issueSession(w, r, user)
	respond(w, http.StatusCreated, viewUser(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Same answer for unknown email and wrong password.
		respondError(w, r, auth.ErrInvalidCredentials)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "User logged in", "user_id", user.ID)
	s.issueSession(w, r, user)
	respond(w, http.StatusOK, viewUser(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, s.auth.ClearCookie())
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	user, err := s.store.GetUserByID(r.Context(), sess.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, viewUser(user))
}

// issueSession sets a fresh session cookie for the user's current state.
// Called on login and again whenever family membership changes, since the
// token carries the family and role.
func (s *Server) issueSession(w http.ResponseWriter, r *http.Request, user core.User) {
	now := time.Now()
	token, err := s.auth.IssueToken(user, now)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to issue session token",
			"user_id", user.ID, "error", err)
		return
	}
	http.SetCookie(w, s.auth.SessionCookie(token, now))
}
