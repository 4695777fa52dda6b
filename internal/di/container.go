// Package di wires the application together with a samber/do container.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/msomdec/clip/internal/config"
	"github.com/msomdec/clip/internal/service"
)

// NewContainer creates the DI container for cfg with all providers
// registered. Nothing is constructed until it is invoked.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, ProvideLogger)

	// Persistence and change notifications
	do.Provide(injector, ProvideStore)
	do.Provide(injector, ProvideBroker)

	// Business services
	do.Provide(injector, ProvideAuthService)
	do.Provide(injector, ProvideIdentityResolver)
	do.Provide(injector, ProvideCategoryService)
	do.Provide(injector, ProvideScrapService)
	do.Provide(injector, ProvideViewRegistry)
	do.Provide(injector, ProvideAuthLimiter)

	// Server
	do.Provide(injector, ProvideHTTPServer)

	return injector
}

// Bootstrap constructs every service eagerly so configuration and storage
// errors surface before the server starts listening.
func Bootstrap(injector do.Injector) (*HTTPServerHandle, error) {
	if _, err := do.Invoke[*slog.Logger](injector); err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*StoreHandle](injector); err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*service.ViewRegistry](injector); err != nil {
		return nil, err
	}
	return do.Invoke[*HTTPServerHandle](injector)
}
