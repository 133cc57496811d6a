package playback

import (
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/errors"
)

type eventLog struct {
	mu     sync.Mutex
	events []domain.PlaybackEvent
}

func (l *eventLog) handle(e domain.PlaybackEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []domain.PlaybackEventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.PlaybackEventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.DiscardHandler))
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := newTestRegistry()
	log := &eventLog{}
	unsubscribe := r.Subscribe(log.handle)
	defer unsubscribe()

	s, err := r.Start(domain.PlaybackSession{DeviceID: "tv", Client: "Kodi", NowPlayingItemID: "ep1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.SessionID, "ses-"))
	assert.False(t, s.StartedAt.IsZero())

	s, err = r.Progress("tv", 42.5)
	require.NoError(t, err)
	assert.Equal(t, 42.5, s.PositionSeconds)

	got, ok := r.Session("tv")
	require.True(t, ok)
	assert.Equal(t, 42.5, got.PositionSeconds)

	assert.True(t, r.Stop("tv"))
	assert.False(t, r.Stop("tv"))
	assert.Empty(t, r.Sessions())

	assert.Equal(t, []domain.PlaybackEventType{domain.PlaybackStarted, domain.PlaybackStopped}, log.types())
}

func TestRegistry_StartReplacesRunningSession(t *testing.T) {
	r := newTestRegistry()
	log := &eventLog{}
	r.Subscribe(log.handle)

	_, err := r.Start(domain.PlaybackSession{DeviceID: "tv", NowPlayingItemID: "ep1"})
	require.NoError(t, err)
	_, err = r.Start(domain.PlaybackSession{DeviceID: "tv", NowPlayingItemID: "ep2"})
	require.NoError(t, err)

	assert.Equal(t, []domain.PlaybackEventType{
		domain.PlaybackStarted, domain.PlaybackStopped, domain.PlaybackStarted,
	}, log.types())
	s, _ := r.Session("tv")
	assert.Equal(t, "ep2", s.NowPlayingItemID)
}

func TestRegistry_Validation(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Start(domain.PlaybackSession{DeviceID: "tv"})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = r.Progress("ghost", 10)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Empty(t, r.Sessions(), "progress must not create sessions")
}

func TestRegistry_Unsubscribe(t *testing.T) {
	r := newTestRegistry()
	log := &eventLog{}
	unsubscribe := r.Subscribe(log.handle)
	unsubscribe()
	unsubscribe()

	_, err := r.Start(domain.PlaybackSession{DeviceID: "tv", NowPlayingItemID: "ep1"})
	require.NoError(t, err)
	assert.Empty(t, log.types())
}

func TestRegistry_SessionsSortedAndPrune(t *testing.T) {
	r := newTestRegistry()
	for _, dev := range []string{"c", "a", "b"} {
		_, err := r.Start(domain.PlaybackSession{DeviceID: dev, NowPlayingItemID: "ep"})
		require.NoError(t, err)
	}

	sessions := r.Sessions()
	require.Len(t, sessions, 3)
	assert.Equal(t, "a", sessions[0].DeviceID)
	assert.Equal(t, "c", sessions[2].DeviceID)

	assert.Zero(t, r.Prune(time.Hour))
	assert.Equal(t, 3, r.Prune(-time.Second))
	assert.Empty(t, r.Sessions())
}
