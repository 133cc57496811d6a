// Package di provides dependency injection configuration for the skipper daemon.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/skipper/internal/analyzer"
	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/di/providers"
	"github.com/listenupapp/skipper/internal/logger"
	"github.com/listenupapp/skipper/internal/playback"
	"github.com/listenupapp/skipper/internal/ratelimit"
	"github.com/listenupapp/skipper/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideLiveSettings)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Playback
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideRateLimiter)

	// Analysis and auto skip
	do.Provide(injector, providers.ProvideMediaTools)
	do.Provide(injector, providers.ProvideRunner)
	do.Provide(injector, providers.ProvideCoordinator)
	do.Provide(injector, providers.ProvideSessionPruneJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	if _, err := do.Invoke[*config.LiveSettings](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*playback.Registry](injector)
	_ = do.MustInvoke[*ratelimit.KeyedRateLimiter](injector)
	_ = do.MustInvoke[*providers.MediaTools](injector)
	_ = do.MustInvoke[*analyzer.Runner](injector)
	_ = do.MustInvoke[*providers.CoordinatorHandle](injector)
	_ = do.MustInvoke[*providers.SessionPruneJob](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	return nil
}
