package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/skipper/internal/analyzer"
	"github.com/listenupapp/skipper/internal/api"
	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/logger"
	"github.com/listenupapp/skipper/internal/playback"
	"github.com/listenupapp/skipper/internal/ratelimit"
	"github.com/listenupapp/skipper/internal/validation"
)

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

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	coordinator := do.MustInvoke[*CoordinatorHandle](i)

	handler := api.NewServer(api.Deps{
		Registry:  do.MustInvoke[*playback.Registry](i),
		Segments:  storeHandle,
		Events:    sseHandle.Manager,
		Runner:    do.MustInvoke[*analyzer.Runner](i),
		Skip:      coordinator,
		Limiter:   do.MustInvoke[*ratelimit.KeyedRateLimiter](i),
		Validator: do.MustInvoke[*validation.Validator](i),
		Logger:    log.Component("http"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
