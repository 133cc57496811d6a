// Package playback tracks live playback sessions reported by clients and
// fans out start and stop events to subscribers.
package playback

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/errors"
	"github.com/listenupapp/skipper/internal/id"
	"github.com/listenupapp/skipper/internal/syncmap"
)

// Handler receives playback lifecycle events. Handlers run synchronously on
// the reporting goroutine and must not block.
type Handler func(domain.PlaybackEvent)

// Registry holds one session per device.
type Registry struct {
	sessions *syncmap.Map[string, domain.PlaybackSession]
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers map[uint64]Handler
	nextID   uint64
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: syncmap.New[string, domain.PlaybackSession](),
		logger:   logger,
		handlers: make(map[uint64]Handler),
	}
}

// Subscribe registers h and returns a function that removes it again.
func (r *Registry) Subscribe(h Handler) (unsubscribe func()) {
	r.mu.Lock()
	r.nextID++
	key := r.nextID
	r.handlers[key] = h
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.handlers, key)
			r.mu.Unlock()
		})
	}
}

// Start records that a device began playing an item. A session already
// running on the device is stopped first.
func (r *Registry) Start(s domain.PlaybackSession) (domain.PlaybackSession, error) {
	if s.DeviceID == "" || s.NowPlayingItemID == "" {
		return domain.PlaybackSession{}, errors.Validation("device_id and item_id are required")
	}
	if s.SessionID == "" {
		sid, err := id.Generate(id.PrefixSession)
		if err != nil {
			return domain.PlaybackSession{}, errors.ErrInternal.WithCause(err)
		}
		s.SessionID = sid
	}
	now := time.Now()
	s.StartedAt = now
	s.LastSeenAt = now

	previous, replaced := r.sessions.Load(s.DeviceID)
	r.sessions.Store(s.DeviceID, s)

	if replaced {
		r.emit(domain.PlaybackEvent{Type: domain.PlaybackStopped, Session: previous})
	}
	r.logger.Info("playback started",
		"device", s.DeviceID, "client", s.Client, "item", s.NowPlayingItemID, "episode_number", s.EpisodeNumber)
	r.emit(domain.PlaybackEvent{Type: domain.PlaybackStarted, Session: s})
	return s, nil
}

// Progress updates the position of the device's session.
func (r *Registry) Progress(deviceID string, position float64) (domain.PlaybackSession, error) {
	updated, ok := r.sessions.Update(deviceID, func(cur domain.PlaybackSession) domain.PlaybackSession {
		cur.PositionSeconds = position
		cur.Touch()
		return cur
	})
	if !ok {
		return domain.PlaybackSession{}, errors.NotFoundf("no active playback for device %s", deviceID)
	}
	return updated, nil
}

// Stop ends the device's session. It reports false when nothing was playing.
func (r *Registry) Stop(deviceID string) bool {
	s, ok := r.sessions.LoadAndDelete(deviceID)
	if !ok {
		return false
	}
	r.logger.Info("playback stopped", "device", deviceID, "item", s.NowPlayingItemID, "position", s.PositionSeconds)
	r.emit(domain.PlaybackEvent{Type: domain.PlaybackStopped, Session: s})
	return true
}

// Session returns the device's current session.
func (r *Registry) Session(deviceID string) (domain.PlaybackSession, bool) {
	return r.sessions.Load(deviceID)
}

// Sessions returns a snapshot of all live sessions ordered by device id.
func (r *Registry) Sessions() []domain.PlaybackSession {
	snap := r.sessions.Snapshot()
	out := make([]domain.PlaybackSession, 0, len(snap))
	for _, s := range snap {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b domain.PlaybackSession) int {
		return strings.Compare(a.DeviceID, b.DeviceID)
	})
	return out
}

// Prune stops sessions that have not reported for longer than idle.
func (r *Registry) Prune(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	pruned := 0
	for _, s := range r.Sessions() {
		if s.LastSeenAt.Before(cutoff) && r.Stop(s.DeviceID) {
			pruned++
		}
	}
	return pruned
}

func (r *Registry) emit(event domain.PlaybackEvent) {
	r.mu.RLock()
	handlers := make([]Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
