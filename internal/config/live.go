package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/listenupapp/skipper/internal/validation"
)

const reloadDebounce = 250 * time.Millisecond

// LiveSettings holds the current Settings and reloads them when the backing
// file changes. Readers poll Current and Version rather than subscribing.
type LiveSettings struct {
	path      string
	validator *validation.Validator
	logger    *slog.Logger

	current atomic.Pointer[Settings]
	version atomic.Uint64

	mu      sync.Mutex // guards watcher and cancel
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewLiveSettings loads path (or the defaults when it does not exist).
func NewLiveSettings(path string, v *validation.Validator, logger *slog.Logger) (*LiveSettings, error) {
	s, err := LoadSettings(path, v)
	if err != nil {
		return nil, err
	}
	l := &LiveSettings{path: path, validator: v, logger: logger}
	l.store(s)
	return l, nil
}

// Current returns the active settings.
func (l *LiveSettings) Current() Settings {
	return *l.current.Load()
}

// Version increases every time a new Settings value is installed.
func (l *LiveSettings) Version() uint64 {
	return l.version.Load()
}

// Path returns the settings file location.
func (l *LiveSettings) Path() string {
	return l.path
}

// Replace validates s, installs it and persists it to disk.
func (l *LiveSettings) Replace(s Settings) error {
	if err := s.Validate(l.validator); err != nil {
		return err
	}
	if err := SaveSettings(l.path, s); err != nil {
		return err
	}
	l.store(s)
	return nil
}

// Reload re-reads the file. On failure the previous settings stay active.
func (l *LiveSettings) Reload() error {
	s, err := LoadSettings(l.path, l.validator)
	if err != nil {
		return err
	}
	l.store(s)
	l.logger.Info("settings reloaded", "path", l.path, "version", l.Version())
	return nil
}

func (l *LiveSettings) store(s Settings) {
	l.current.Store(&s)
	l.version.Add(1)
}

// Watch starts reloading on file changes. The parent directory is watched so
// that editors replacing the file atomically are still noticed.
func (l *LiveSettings) Watch(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(l.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch settings directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	l.watcher = w
	l.cancel = cancel
	l.wg.Add(1)
	go l.processEvents(ctx, w)
	return nil
}

func (l *LiveSettings) processEvents(ctx context.Context, w *fsnotify.Watcher) {
	defer l.wg.Done()

	target := filepath.Clean(l.path)
	var debounce *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			if err := l.Reload(); err != nil {
				l.logger.Warn("settings reload failed, keeping previous settings", "path", l.path, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.logger.Warn("settings watcher error", "error", err)
		}
	}
}

// Close stops the watcher. It implements do.Shutdowner.
func (l *LiveSettings) Close() error {
	l.mu.Lock()
	w, cancel := l.watcher, l.cancel
	l.watcher, l.cancel = nil, nil
	l.mu.Unlock()

	if w == nil {
		return nil
	}
	cancel()
	err := w.Close()
	l.wg.Wait()
	return err
}

// Shutdown implements do.Shutdowner.
func (l *LiveSettings) Shutdown() error {
	return l.Close()
}
