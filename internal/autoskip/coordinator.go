// Package autoskip seeks active playback sessions past their end credits,
// at most once per viewing.
//
// Each device moves between two states. A playback start arms it (or marks
// it fired straight away for a deliberately unskipped first episode). A
// timer tick that finds the position inside the credits decision window
// fires it and sends the seek. Fired devices stay quiet until the next
// playback start.
package autoskip

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/cases"

	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/playback"
	"github.com/listenupapp/skipper/internal/syncmap"
)

// State is the skip state of one device.
type State int

const (
	// Armed devices are skipped when they enter the decision window.
	Armed State = iota
	// Fired devices have been sent their seek for the current viewing.
	Fired
)

func (s State) String() string {
	if s == Fired {
		return "fired"
	}
	return "armed"
}

// deviceState ties a device's state to the viewing that set it.
type deviceState struct {
	state     State
	sessionID string
}

// SessionSource exposes live sessions and their lifecycle events.
type SessionSource interface {
	Subscribe(h playback.Handler) (unsubscribe func())
	Sessions() []domain.PlaybackSession
}

// SegmentSource looks up persisted segments.
type SegmentSource interface {
	Get(ctx context.Context, episodeID string, mode domain.Mode) (domain.Segment, bool, error)
}

// CommandSink delivers commands to playback clients.
type CommandSink interface {
	SendSeek(ctx context.Context, s domain.PlaybackSession, targetSeconds float64) error
	SendNotification(ctx context.Context, s domain.PlaybackSession, text string) error
}

// SettingsSource provides versioned live settings.
type SettingsSource interface {
	Current() config.Settings
	Version() uint64
}

// Options tunes the coordinator timers.
type Options struct {
	// TickInterval is the skip evaluation period.
	TickInterval time.Duration
	// PollInterval is how often settings are checked for changes.
	PollInterval time.Duration
}

// Coordinator owns the per-device skip state.
type Coordinator struct {
	sessions SessionSource
	segments SegmentSource
	sink     CommandSink
	settings SettingsSource
	logger   *slog.Logger
	opts     Options

	states *syncmap.Map[string, deviceState]

	enabled atomic.Bool

	lifeMu      sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
	unsubscribe func()
}

// New creates a stopped coordinator.
func New(sessions SessionSource, segments SegmentSource, sink CommandSink, settings SettingsSource, opts Options, logger *slog.Logger) *Coordinator {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	return &Coordinator{
		sessions: sessions,
		segments: segments,
		sink:     sink,
		settings: settings,
		logger:   logger,
		opts:     opts,
		states:   syncmap.New[string, deviceState](),
	}
}

// Start subscribes to playback events and starts the timers. Calling Start
// on a running coordinator is a no-op.
func (c *Coordinator) Start(ctx context.Context) {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.unsubscribe = c.sessions.Subscribe(c.HandleEvent)

	go c.run(ctx, c.done)
	c.logger.Info("auto skip coordinator started",
		slog.Duration("tick", c.opts.TickInterval),
		slog.Duration("settings_poll", c.opts.PollInterval))
}

// Stop unsubscribes, stops the timers and drops all device state.
func (c *Coordinator) Stop() {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.cancel == nil {
		return
	}

	c.unsubscribe()
	c.cancel()
	<-c.done
	c.cancel, c.done, c.unsubscribe = nil, nil, nil
	c.enabled.Store(false)

	c.states.Clear()
	c.logger.Info("auto skip coordinator stopped")
}

// Shutdown implements do.Shutdowner.
func (c *Coordinator) Shutdown() error {
	c.Stop()
	return nil
}

// Enabled reports whether the skip timer is currently running.
func (c *Coordinator) Enabled() bool {
	return c.enabled.Load()
}

func (c *Coordinator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	poll := time.NewTicker(c.opts.PollInterval)
	defer poll.Stop()

	var (
		tick        *time.Ticker
		tickC       <-chan time.Time
		lastVersion uint64
		seen        bool
	)
	stopTick := func() {
		if tick != nil {
			tick.Stop()
			tick, tickC = nil, nil
		}
	}
	defer stopTick()

	reconcile := func() {
		v := c.settings.Version()
		if seen && v == lastVersion {
			return
		}
		seen, lastVersion = true, v

		want := timerWanted(c.settings.Current())
		switch {
		case want && tick == nil:
			tick = time.NewTicker(c.opts.TickInterval)
			tickC = tick.C
			c.logger.Info("auto skip enabled")
		case !want && tick != nil:
			stopTick()
			c.logger.Info("auto skip disabled")
		}
		c.enabled.Store(want)
	}
	reconcile()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			reconcile()
		case <-tickC:
			c.Tick(ctx)
		}
	}
}

// timerWanted reports whether any client could currently be auto skipped.
func timerWanted(s config.Settings) bool {
	return s.AutoSkipCredits || len(s.Clients()) > 0
}

// HandleEvent applies a playback lifecycle event to the device state.
func (c *Coordinator) HandleEvent(e domain.PlaybackEvent) {
	device := e.Session.DeviceID
	switch e.Type {
	case domain.PlaybackStarted:
		st := Armed
		if c.settings.Current().SkipFirstEpisode && e.Session.EpisodeNumber == 1 {
			st = Fired
		}
		c.states.Store(device, deviceState{state: st, sessionID: e.Session.SessionID})
		c.logger.Debug("playback started",
			slog.String("device_id", device),
			slog.String("item_id", e.Session.NowPlayingItemID),
			slog.String("state", st.String()))
	case domain.PlaybackStopped:
		c.states.Delete(device)
	}
}

// StateOf returns the state of a device. Devices with no recorded start are
// reported as armed.
func (c *Coordinator) StateOf(deviceID string) State {
	ds, _ := c.states.Load(deviceID)
	return ds.state
}

// Tick evaluates every live session once.
func (c *Coordinator) Tick(ctx context.Context) {
	settings := c.settings.Current()
	clients := make(map[string]struct{})
	fold := cases.Fold()
	for _, name := range settings.Clients() {
		clients[fold.String(name)] = struct{}{}
	}

	for _, s := range c.sessions.Sessions() {
		if !s.IsPlaying() || !eligible(settings, clients, fold, s) {
			continue
		}
		c.evaluate(ctx, settings, s)
	}
}

// eligible applies the season override, then the global switch, then the
// client allow-list.
func eligible(settings config.Settings, clients map[string]struct{}, fold cases.Caser, s domain.PlaybackSession) bool {
	switch settings.AnalyzerAction(s.SeasonID, domain.ModeCredits) {
	case domain.ActionSkip:
		return false
	case domain.ActionAutomaticallySkip:
		return true
	}
	if settings.AutoSkipCredits {
		return true
	}
	_, ok := clients[fold.String(s.Client)]
	return ok
}

func (c *Coordinator) evaluate(ctx context.Context, settings config.Settings, s domain.PlaybackSession) {
	logger := c.logger.With(
		slog.String("device_id", s.DeviceID),
		slog.String("session_id", s.SessionID),
		slog.String("item_id", s.NowPlayingItemID))

	if !c.armedFor(s) {
		return
	}

	seg, ok, err := c.segments.Get(ctx, s.NowPlayingItemID, domain.ModeCredits)
	if err != nil {
		logger.Warn("credits lookup failed", slog.String("error", err.Error()))
		return
	}
	if !ok || !seg.Valid() {
		return
	}

	window := domain.TimeRange{
		Start: seg.Start() + float64(settings.SecondsOfCreditsStartToPlay),
		End:   seg.End() - float64(settings.RemainingSecondsOfIntro),
	}
	if window.Start > window.End || !window.Contains(s.PositionSeconds) {
		return
	}

	if !c.claim(s) {
		return
	}

	if text := settings.AutoSkipCreditsNotificationText; text != "" {
		if err := c.sink.SendNotification(ctx, s, text); err != nil {
			logger.Warn("failed to send skip notification", slog.String("error", err.Error()))
		}
	}
	if err := c.sink.SendSeek(ctx, s, window.End); err != nil {
		logger.Warn("failed to send seek command", slog.String("error", err.Error()))
		return
	}
	logger.Info("skipped credits",
		slog.Float64("position", s.PositionSeconds),
		slog.Float64("target", window.End))
}

// armedFor reports whether the device is armed for this viewing. A device
// with no recorded start counts as armed.
func (c *Coordinator) armedFor(s domain.PlaybackSession) bool {
	ds, ok := c.states.Load(s.DeviceID)
	return !ok || (ds.state == Armed && ds.sessionID == s.SessionID)
}

// claim marks the device fired for s. It fails when the device already fired
// or was re-armed by a newer playback start since the session snapshot.
func (c *Coordinator) claim(s domain.PlaybackSession) bool {
	claimed := false
	c.states.Compute(s.DeviceID, func(cur deviceState, ok bool) deviceState {
		if ok && (cur.state == Fired || cur.sessionID != s.SessionID) {
			return cur
		}
		claimed = true
		return deviceState{state: Fired, sessionID: s.SessionID}
	})
	return claimed
}
