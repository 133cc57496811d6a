package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/skipper/internal/domain"
)

// FingerprintAnalyzer feeds audio fingerprint matches into the chain. It only
// handles introductions.
type FingerprintAnalyzer struct {
	matcher IntroMatcher
	logger  *slog.Logger
}

// NewFingerprintAnalyzer wraps matcher.
func NewFingerprintAnalyzer(matcher IntroMatcher, logger *slog.Logger) *FingerprintAnalyzer {
	return &FingerprintAnalyzer{matcher: matcher, logger: logger}
}

// Name implements Analyzer.
func (a *FingerprintAnalyzer) Name() string { return "chromaprint" }

// AnalyzeMediaFiles implements Analyzer.
func (a *FingerprintAnalyzer) AnalyzeMediaFiles(ctx context.Context, queue []*domain.QueuedEpisode, mode domain.Mode) ([]domain.Segment, error) {
	if mode != domain.ModeIntroduction {
		return nil, nil
	}
	// Fingerprints are compared across the season, so already resolved
	// episodes are still handed to the matcher as references.
	todo := pending(queue, mode)
	if len(todo) == 0 || len(queue) < 2 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches, err := a.matcher.MatchIntros(ctx, queue)
	if err != nil {
		return nil, fmt.Errorf("match intros: %w", err)
	}

	var found []domain.Segment
	for _, ep := range todo {
		seg, ok := matches[ep.EpisodeID]
		if !ok || !seg.Valid() {
			continue
		}
		seg.EpisodeID = ep.EpisodeID
		ep.SetAnalyzed(mode, true)
		found = append(found, seg)
	}
	a.logger.Debug("fingerprint matches", "episodes", len(todo), "matched", len(found))
	return found, nil
}
