package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/skipper/internal/logger"
	"github.com/listenupapp/skipper/internal/playback"
	"github.com/listenupapp/skipper/internal/ratelimit"
)

// Playback reports arrive about once a second per device; allow bursts for
// seeks and reconnects.
const (
	reportRate     = 5
	reportBurst    = 20
	limiterIdleTTL = 10 * time.Minute
)

// ProvideRegistry provides the live playback registry.
func ProvideRegistry(i do.Injector) (*playback.Registry, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return playback.NewRegistry(log.Component("playback")), nil
}

// ProvideRateLimiter provides the per-device playback report limiter.
func ProvideRateLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	return ratelimit.New(reportRate, reportBurst, limiterIdleTTL), nil
}
