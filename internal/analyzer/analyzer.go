// Package analyzer locates introduction and credits segments in episodes.
//
// Analyzers form a fixed ordered chain. Each one receives the season's queue,
// skips episodes that an earlier analyzer already resolved for the mode, and
// marks the episodes it resolves itself. Cancellation is observed between
// episodes only; a probe sequence for one episode always runs to completion
// so that the black frame search state carried to the next episode stays
// consistent.
package analyzer

import (
	"context"

	"github.com/listenupapp/skipper/internal/domain"
)

// Analyzer annotates a queue with detected segments for one mode.
// On cancellation it returns the segments found so far together with the
// context error.
type Analyzer interface {
	Name() string
	AnalyzeMediaFiles(ctx context.Context, queue []*domain.QueuedEpisode, mode domain.Mode) ([]domain.Segment, error)
}

// ChapterSource reads the chapter markers of an episode, ordered by start.
type ChapterSource interface {
	Chapters(ctx context.Context, ep *domain.QueuedEpisode) ([]domain.Chapter, error)
}

// FrameSampler reports the frames inside window whose black pixel share is
// at least minimumPercentage. Frame times are absolute and ascending.
type FrameSampler interface {
	DetectBlackFrames(ctx context.Context, ep *domain.QueuedEpisode, window domain.TimeRange, minimumPercentage int) ([]domain.BlackFrame, error)
}

// IntroMatcher compares audio fingerprints across a season and returns the
// shared introduction of each episode it could match, keyed by episode id.
type IntroMatcher interface {
	MatchIntros(ctx context.Context, episodes []*domain.QueuedEpisode) (map[string]domain.Segment, error)
}

func pending(queue []*domain.QueuedEpisode, mode domain.Mode) []*domain.QueuedEpisode {
	out := make([]*domain.QueuedEpisode, 0, len(queue))
	for _, ep := range queue {
		if !ep.IsAnalyzed(mode) {
			out = append(out, ep)
		}
	}
	return out
}
