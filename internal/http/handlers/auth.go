package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"volunteer-api/internal/apperr"
	"volunteer-api/internal/db"
	"volunteer-api/internal/http/respond"
	"volunteer-api/internal/models"
	"volunteer-api/internal/security"
)

type AuthHandler struct {
	pool     db.Pool
	sessions *security.SessionStore
	verifier security.PasswordVerifier
}

func NewAuthHandler(pool db.Pool, sessions *security.SessionStore, verifier security.PasswordVerifier) *AuthHandler {
	return &AuthHandler{
		pool:     pool,
		sessions: sessions,
		verifier: verifier,
	}
}

// Current returns the projection of the logged-in user.
func (h *AuthHandler) Current(w http.ResponseWriter, r *http.Request) {
	u, err := h.sessions.Current(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// Logging in again is a no-op and never touches the database.
	_, err := h.sessions.Current(r)
	if err == nil {
		respond.Success(w, http.StatusOK, "Already logged in!")
		return
	}
	if !errors.Is(err, apperr.ErrNotLoggedIn) {
		respond.Error(w, r, err)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, apperr.Invalid("Invalid request body"))
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		respond.Error(w, r, apperr.Invalid("Blank email or password"))
		return
	}

	var u models.UserProjection
	err = db.WithConn(r.Context(), h.pool, func(conn *db.Conn) error {
		var err error
		u, err = security.Authenticate(r.Context(), conn, h.verifier, email, req.Password)
		return err
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.sessions.Establish(w, r, u); err != nil {
		slog.Error("save_session", "user_id", u.UserID, "error", err)
		respond.Fail(w, http.StatusInternalServerError, "Error saving session", err.Error())
		return
	}
	respond.Success(w, http.StatusOK, "Logged in")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		slog.Error("destroy_session", "error", err)
		respond.Fail(w, http.StatusInternalServerError, "Error logging out", err.Error())
		return
	}
	respond.Success(w, http.StatusOK, "Logged out")
}
