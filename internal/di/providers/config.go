// Package providers contains dependency injection providers for the skipper
// daemon.
package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/logger"
	"github.com/listenupapp/skipper/internal/validation"
)

// ProvideConfig provides the process configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return cfg, nil
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting skipper",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Storage.DataPath,
		"store_backend", cfg.Storage.Backend,
		"settings_file", cfg.Settings.File,
	)

	return log, nil
}

// ProvideValidator provides the shared struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideLiveSettings loads the settings file and starts watching it.
// LiveSettings implements do.Shutdowner itself.
func ProvideLiveSettings(i do.Injector) (*config.LiveSettings, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	v := do.MustInvoke[*validation.Validator](i)

	live, err := config.NewLiveSettings(cfg.Settings.File, v, log.Component("settings"))
	if err != nil {
		return nil, err
	}
	if err := live.Watch(context.Background()); err != nil {
		log.Warn("Settings file watcher unavailable, changes need a restart", "error", err)
	}
	return live, nil
}
