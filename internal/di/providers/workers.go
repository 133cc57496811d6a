package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/skipper/internal/analyzer"
	"github.com/listenupapp/skipper/internal/autoskip"
	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/logger"
	"github.com/listenupapp/skipper/internal/media"
	"github.com/listenupapp/skipper/internal/playback"
)

// sessionIdleTimeout drops sessions whose client stopped reporting without
// sending a stop.
const sessionIdleTimeout = 30 * time.Minute

// MediaTools bundles the ffprobe and ffmpeg collaborators.
type MediaTools struct {
	Probe  *media.FFprobe
	FFmpeg *media.FFmpeg
}

// ProvideMediaTools provides the ffprobe chapter source and the ffmpeg
// black frame sampler.
func ProvideMediaTools(i do.Injector) (*MediaTools, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &MediaTools{
		Probe:  media.NewFFprobe(cfg.Media.FFprobePath, log.Component("ffprobe")),
		FFmpeg: media.NewFFmpeg(cfg.Media.FFmpegPath, log.Component("ffmpeg")),
	}, nil
}

// ProvideRunner provides the analysis batch runner.
func ProvideRunner(i do.Injector) (*analyzer.Runner, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	settings := do.MustInvoke[*config.LiveSettings](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tools := do.MustInvoke[*MediaTools](i)

	return analyzer.NewRunner(analyzer.RunnerDeps{
		Store:    storeHandle,
		Settings: settings,
		Chapters: tools.Probe,
		Sampler:  tools.FFmpeg,
		LockPath: cfg.LockPath(),
		Logger:   log.Component("analyzer"),
	}), nil
}

// CoordinatorHandle wraps the auto skip coordinator with shutdown capability.
type CoordinatorHandle struct {
	*autoskip.Coordinator
}

// Shutdown implements do.Shutdownable.
func (h *CoordinatorHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideCoordinator provides and starts the auto skip coordinator.
func ProvideCoordinator(i do.Injector) (*CoordinatorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	settings := do.MustInvoke[*config.LiveSettings](i)
	registry := do.MustInvoke[*playback.Registry](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	coord := autoskip.New(registry, storeHandle, sseHandle.Manager, settings, autoskip.Options{
		TickInterval: cfg.AutoSkip.TickInterval,
		PollInterval: cfg.Settings.PollInterval,
	}, log.Component("autoskip"))
	coord.Start(context.Background())

	return &CoordinatorHandle{Coordinator: coord}, nil
}

// SessionPruneJob removes idle playback sessions periodically.
type SessionPruneJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (j *SessionPruneJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// ProvideSessionPruneJob starts the idle session pruner.
func ProvideSessionPruneJob(i do.Injector) (*SessionPruneJob, error) {
	log := do.MustInvoke[*logger.Logger](i)
	registry := do.MustInvoke[*playback.Registry](i)

	ctx, cancel := context.WithCancel(context.Background())
	job := &SessionPruneJob{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(job.done)
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := registry.Prune(sessionIdleTimeout); n > 0 {
					log.Info("Pruned idle playback sessions", "count", n)
				}
			}
		}
	}()

	return job, nil
}
