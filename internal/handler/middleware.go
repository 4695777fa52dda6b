package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/service"
)

type contextKey string

const (
	userContextKey     contextKey = "user"
	identityContextKey contextKey = "identity"

	authCookieName      = "auth_token"
	sessionCookieMaxAge = 365 * 24 * 60 * 60
)

// UserFromContext extracts the authenticated user from the request context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// IdentityFromContext returns the identity resolved by WithIdentity.
func IdentityFromContext(ctx context.Context) domain.Identity {
	ident, _ := ctx.Value(identityContextKey).(domain.Identity)
	return ident
}

// WithIdentity resolves who the request acts as: the authenticated user when
// the auth cookie is valid, otherwise the anonymous browser session. When
// anonymous sessions are disabled, unauthenticated requests get 401.
func WithIdentity(auth *service.AuthService, resolver *service.IdentityResolver, allowAnonymous, cookieSecure bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := authenticateRequest(r, auth)
		if err != nil {
			user = nil
		}
		if user == nil && !allowAnonymous {
			writeError(w, http.StatusUnauthorized, "Not authenticated.")
			return
		}

		store := &cookieSessionStore{r: r, w: w, secure: cookieSecure}
		ident, err := resolver.Resolve(r.Context(), user, store)
		if err != nil {
			slog.Error("resolve identity", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, ident)
		if user != nil {
			ctx = context.WithValue(ctx, userContextKey, user)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authenticateRequest(r *http.Request, auth *service.AuthService) (*domain.User, error) {
	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		return nil, err
	}

	userID, err := auth.ValidateToken(cookie.Value)
	if err != nil {
		return nil, err
	}

	user, err := auth.GetUserByID(r.Context(), userID)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// cookieSessionStore keeps the anonymous session id in a long-lived cookie.
type cookieSessionStore struct {
	r      *http.Request
	w      http.ResponseWriter
	secure bool
}

func (c *cookieSessionStore) Get(key string) (string, bool, error) {
	cookie, err := c.r.Cookie(key)
	if err != nil {
		return "", false, nil
	}
	return cookie.Value, true, nil
}

func (c *cookieSessionStore) Set(key, value string) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionCookieMaxAge,
	})
	return nil
}

// RateLimit rejects requests from a client IP once its bucket is empty.
func RateLimit(limiter *service.RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Too many attempts. Please wait a minute and try again.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SecurityHeaders sets conservative browser security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' 'unsafe-eval' https://cdn.jsdelivr.net; "+
				"img-src 'self' data: https:; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// CORS allows a separately hosted frontend on the given origins to call the
// API with credentials. With no origins configured it is a no-op.
func CORS(origins []string, next http.Handler) http.Handler {
	var allowed []string
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		return next
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Datastar-Request"},
		AllowCredentials: true,
		MaxAge:           int((5 * time.Minute).Seconds()),
	})(next)
}
