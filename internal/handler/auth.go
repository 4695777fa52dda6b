package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth         *service.AuthService
	categories   *service.CategoryService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, categories *service.CategoryService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, categories: categories, cookieSecure: cookieSecure}
}

// HandleLogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}
		slog.Error("login user", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	h.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(sess.User),
	})
}

// HandleRegister processes a JSON registration request.
// POST /api/auth/register
// Request:  {"email":"...","password":"...","confirmPassword":"..."}
// Response: {"user": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		writeServiceError(w, err, "register user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogout clears the auth cookie.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", time.Time{})
	w.WriteHeader(http.StatusNoContent)
}

// setSessionCookie writes the auth cookie; a zero expiry deletes it.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	maxAge := -1
	if !expires.IsZero() {
		maxAge = int(time.Until(expires).Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// HandleMe returns the current identity and, when signed in, the user.
// GET /api/auth/me
// Response: {"identity": {...}, "user": {...}|null}
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ident := IdentityFromContext(r.Context())
	resp := map[string]any{
		"identity": IdentityDTO{UserID: ident.UserID, Anonymous: ident.Anonymous},
		"user":     nil,
	}
	if user := UserFromContext(r.Context()); user != nil {
		resp["user"] = toUserDTO(user)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleOnboarding creates the initial category set in one batch and, for a
// signed-in user, completes onboarding.
// POST /api/onboarding
// Request:  {"categories":["...", "..."]}
// Response: {"categories": [...]}
func (h *AuthHandler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Categories []string `json:"categories"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	created, err := h.categories.CreateInitial(r.Context(), IdentityFromContext(r.Context()), req.Categories)
	if err != nil {
		writeServiceError(w, err, "create initial categories")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"categories": toCategoryDTOs(created),
	})
}
