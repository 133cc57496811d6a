package analyzer

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func episode(id, season string, duration float64) *domain.QueuedEpisode {
	return &domain.QueuedEpisode{EpisodeID: id, SeasonID: season, Path: "/media/" + id + ".mkv", Duration: duration}
}

type fakeChapters struct {
	byEpisode map[string][]domain.Chapter
	err       error
	onRead    func(ep *domain.QueuedEpisode)
}

func (f *fakeChapters) Chapters(_ context.Context, ep *domain.QueuedEpisode) ([]domain.Chapter, error) {
	if f.onRead != nil {
		f.onRead(ep)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.byEpisode[ep.EpisodeID], nil
}

type probe struct {
	episode string
	window  domain.TimeRange
}

// fakeSampler reports black frames on a fixed frame grid for every time at
// or after the episode's onset.
type fakeSampler struct {
	mu     sync.Mutex
	onset  map[string]float64
	step   float64
	err    error
	probes []probe
}

func newFakeSampler(onset map[string]float64) *fakeSampler {
	return &fakeSampler{onset: onset, step: 0.04}
}

func (f *fakeSampler) DetectBlackFrames(_ context.Context, ep *domain.QueuedEpisode, window domain.TimeRange, _ int) ([]domain.BlackFrame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes = append(f.probes, probe{episode: ep.EpisodeID, window: window})
	if f.err != nil {
		return nil, f.err
	}

	onset, ok := f.onset[ep.EpisodeID]
	if !ok {
		return nil, nil
	}
	var frames []domain.BlackFrame
	for k := math.Ceil(window.Start / f.step); k*f.step <= window.End; k++ {
		if t := k * f.step; t >= onset {
			frames = append(frames, domain.BlackFrame{Time: t, Percent: 100})
		}
	}
	return frames, nil
}

func (f *fakeSampler) probesFor(episodeID string) []probe {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []probe
	for _, p := range f.probes {
		if p.episode == episodeID {
			out = append(out, p)
		}
	}
	return out
}

type fakeMatcher struct {
	matches map[string]domain.Segment
	err     error
	calls   int
}

func (f *fakeMatcher) MatchIntros(_ context.Context, _ []*domain.QueuedEpisode) (map[string]domain.Segment, error) {
	f.calls++
	return f.matches, f.err
}

type memStore struct {
	mu       sync.Mutex
	segments map[string]domain.Segment
	err      error
}

func newMemStore() *memStore {
	return &memStore{segments: make(map[string]domain.Segment)}
}

func (m *memStore) Upsert(_ context.Context, episodeID string, mode domain.Mode, seg domain.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.segments[episodeID+"/"+string(mode)] = seg
	return nil
}

func (m *memStore) get(episodeID string, mode domain.Mode) (domain.Segment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seg, ok := m.segments[episodeID+"/"+string(mode)]
	return seg, ok
}

type staticSettings struct{ s config.Settings }

func (s staticSettings) Current() config.Settings { return s.s }
