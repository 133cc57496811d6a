package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/logger"
	"github.com/listenupapp/skipper/internal/sse"
	"github.com/listenupapp/skipper/internal/store"
	"github.com/listenupapp/skipper/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Manager.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse"))

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the configured segment store with shutdown capability.
type StoreHandle struct {
	store.SegmentStore
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the segment store selected by STORE_BACKEND. Stored
// segments are announced on the SSE stream.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	var (
		segments store.SegmentStore
		err      error
	)
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		segments, err = sqlite.Open(filepath.Join(cfg.Storage.DataPath, "segments.db"), log.Component("store"), sseHandle.Manager)
	case config.BackendBadger:
		segments, err = store.New(filepath.Join(cfg.Storage.DataPath, "db"), log.Component("store"), sseHandle.Manager)
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	return &StoreHandle{SegmentStore: segments}, nil
}
