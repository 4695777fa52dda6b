package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/msomdec/clip/internal/config"
	"github.com/msomdec/clip/internal/domain"
	"github.com/msomdec/clip/internal/handler"
	"github.com/msomdec/clip/internal/logger"
	"github.com/msomdec/clip/internal/repository/badger"
	"github.com/msomdec/clip/internal/repository/sqlite"
	"github.com/msomdec/clip/internal/service"
)

const shutdownTimeout = 5 * time.Second

// ProvideLogger provides the process logger and installs it as the slog default.
func ProvideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := logger.New(cfg.Logger.Level, os.Stdout, os.Stderr)
	slog.SetDefault(log)
	return log, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	domain.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens and migrates the configured backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	var store domain.Store
	switch cfg.Store.Driver {
	case config.DriverBadger:
		s, err := badger.Open(cfg.Store.Path, log)
		if err != nil {
			return nil, err
		}
		store = s
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate %s store: %w", cfg.Store.Driver, err)
	}

	log.Info("store ready", "driver", cfg.Store.Driver, "path", cfg.Store.Path)
	return &StoreHandle{Store: store}, nil
}

// BrokerHandle closes subscriber channels on shutdown so open streams end.
type BrokerHandle struct {
	*service.Broker
}

// Shutdown implements do.Shutdownable.
func (h *BrokerHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideBroker provides the change-event broker.
func ProvideBroker(i do.Injector) (*BrokerHandle, error) {
	log := do.MustInvoke[*slog.Logger](i)
	return &BrokerHandle{Broker: service.NewBroker(log)}, nil
}

// ProvideAuthService provides the AuthService.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	store := do.MustInvoke[*StoreHandle](i)
	return service.NewAuthService(store.Users(), cfg.Auth.JWTSecret, cfg.Auth.BcryptCost), nil
}

// ProvideIdentityResolver provides the IdentityResolver.
func ProvideIdentityResolver(i do.Injector) (*service.IdentityResolver, error) {
	return service.NewIdentityResolver(do.MustInvoke[*slog.Logger](i)), nil
}

// ProvideCategoryService provides the CategoryService.
func ProvideCategoryService(i do.Injector) (*service.CategoryService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	broker := do.MustInvoke[*BrokerHandle](i)
	return service.NewCategoryService(store.Categories(), store.Users(), broker.Broker), nil
}

// ProvideScrapService provides the ScrapService.
func ProvideScrapService(i do.Injector) (*service.ScrapService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	broker := do.MustInvoke[*BrokerHandle](i)
	return service.NewScrapService(store.Scraps(), store.Categories(), store.FileStore(), broker.Broker), nil
}

// ProvideViewRegistry provides the per-identity scrapbook view registry.
func ProvideViewRegistry(i do.Injector) (*service.ViewRegistry, error) {
	categories := do.MustInvoke[*service.CategoryService](i)
	scraps := do.MustInvoke[*service.ScrapService](i)
	return service.NewViewRegistry(categories, scraps, 30*time.Minute), nil
}

// RateLimiterHandle stops the limiter's sweep goroutine on shutdown.
type RateLimiterHandle struct {
	*service.RateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideAuthLimiter provides the login/register limiter: a burst of 10
// attempts per client IP, refilling one every six seconds.
func ProvideAuthLimiter(i do.Injector) (*RateLimiterHandle, error) {
	return &RateLimiterHandle{RateLimiter: service.NewRateLimiter(1.0/6, 10)}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the configured, not yet listening, HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	broker := do.MustInvoke[*BrokerHandle](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)

	h := handler.NewHandler(handler.Deps{
		Auth:              do.MustInvoke[*service.AuthService](i),
		Identity:          do.MustInvoke[*service.IdentityResolver](i),
		Categories:        do.MustInvoke[*service.CategoryService](i),
		Scraps:            do.MustInvoke[*service.ScrapService](i),
		Views:             do.MustInvoke[*service.ViewRegistry](i),
		Broker:            broker.Broker,
		AuthLimiter:       limiter.RateLimiter,
		StoreDriver:       cfg.Store.Driver,
		CookieSecure:      cfg.Auth.CookieSecure,
		AnonymousSessions: cfg.Auth.AnonymousSessions,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    1 << 20, // 1MB
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	// Open scrapbook streams only end when the broker closes their channels.
	srv.RegisterOnShutdown(broker.Close)

	return &HTTPServerHandle{Server: srv}, nil
}
