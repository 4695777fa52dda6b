package handler

import (
	"net/http"

	"github.com/msomdec/clip/internal/service"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Auth        *service.AuthService
	Identity    *service.IdentityResolver
	Categories  *service.CategoryService
	Scraps      *service.ScrapService
	Views       *service.ViewRegistry
	Broker      *service.Broker
	AuthLimiter *service.RateLimiter

	StoreDriver       string
	CookieSecure      bool
	AnonymousSessions bool
	AllowedOrigins    []string
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	authHandler := NewAuthHandler(d.Auth, d.Categories, d.CookieSecure)
	categoryHandler := NewCategoryHandler(d.Categories)
	scrapHandler := NewScrapHandler(d.Scraps)
	scrapbookHandler := NewScrapbookHandler(d.Views, d.Broker)

	identity := func(h http.HandlerFunc) http.Handler {
		return WithIdentity(d.Auth, d.Identity, d.AnonymousSessions, d.CookieSecure, h)
	}
	limited := func(h http.HandlerFunc) http.Handler {
		return RateLimit(d.AuthLimiter, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz(d.StoreDriver))

	// Auth.
	mux.Handle("POST /api/auth/register", limited(authHandler.HandleRegister))
	mux.Handle("POST /api/auth/login", limited(authHandler.HandleLogin))
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.Handle("GET /api/auth/me", identity(authHandler.HandleMe))
	mux.Handle("POST /api/onboarding", identity(authHandler.HandleOnboarding))

	// Categories and scraps.
	mux.Handle("GET /api/categories", identity(categoryHandler.HandleList))
	mux.Handle("POST /api/categories", identity(categoryHandler.HandleCreate))
	mux.Handle("GET /api/categories/defaults", identity(categoryHandler.HandleDefaults))
	mux.Handle("DELETE /api/categories/{id}", identity(categoryHandler.HandleDelete))
	mux.Handle("GET /api/categories/{id}/scraps", identity(scrapHandler.HandleList))
	mux.Handle("POST /api/categories/{id}/scraps", identity(scrapHandler.HandleCreate))
	mux.Handle("DELETE /api/scraps/{id}", identity(scrapHandler.HandleDelete))
	mux.Handle("POST /api/images", identity(scrapHandler.HandleUploadImage))
	mux.Handle("GET /files/{key...}", identity(scrapHandler.HandleServeFile))

	// Datastar UI.
	mux.Handle("GET /{$}", identity(scrapbookHandler.HandlePage))
	mux.Handle("GET /scrapbook/stream", identity(scrapbookHandler.HandleStream))
	mux.Handle("POST /scrapbook/select/{id}", identity(scrapbookHandler.HandleSelect))
	mux.Handle("POST /scrapbook/scraps", identity(scrapbookHandler.HandleAddScrap))
	mux.Handle("POST /scrapbook/scraps/{id}/delete", identity(scrapbookHandler.HandleDeleteScrap))
	mux.Handle("POST /scrapbook/categories", identity(scrapbookHandler.HandleAddCategory))
	mux.Handle("POST /scrapbook/categories/{id}/delete", identity(scrapbookHandler.HandleDeleteCategory))
}

// NewHandler builds the mux and wraps it in CORS and security headers.
func NewHandler(d Deps) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, d)
	return SecurityHeaders(CORS(d.AllowedOrigins, mux))
}
