package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/domain"
)

const (
	// maximumError is the bracket width, in seconds, at which bisection stops.
	maximumError = 4.0
	// prescanLength is the clip length of a coarse pre-scan probe.
	prescanLength = 0.5
	// probeLength is the clip length of a bisection probe.
	probeLength = 2.0
	// maximumProbes caps the bisection of a single episode.
	maximumProbes = 64
)

// BlackFrameAnalyzer finds the start of the credits by bisecting over black
// frame occurrence near the end of each episode. Search offsets are measured
// in seconds from the end of the file.
type BlackFrameAnalyzer struct {
	sampler  FrameSampler
	chapters ChapterSource // optional; seeds the first episode of a run
	settings config.Settings
	logger   *slog.Logger
}

// NewBlackFrameAnalyzer creates a black frame analyzer bound to a settings
// snapshot. chapters may be nil.
func NewBlackFrameAnalyzer(sampler FrameSampler, chapters ChapterSource, settings config.Settings, logger *slog.Logger) *BlackFrameAnalyzer {
	return &BlackFrameAnalyzer{sampler: sampler, chapters: chapters, settings: settings, logger: logger}
}

// Name implements Analyzer.
func (a *BlackFrameAnalyzer) Name() string { return "blackframe" }

// AnalyzeMediaFiles implements Analyzer. Only credits are supported; any
// other mode is a no-op. Episodes are expected in playback order.
func (a *BlackFrameAnalyzer) AnalyzeMediaFiles(ctx context.Context, queue []*domain.QueuedEpisode, mode domain.Mode) ([]domain.Segment, error) {
	if mode != domain.ModeCredits {
		return nil, nil
	}

	minimum := float64(a.settings.MinimumCreditsDuration)
	searchDistance := 2 * minimum
	searchStart := minimum
	firstEpisode := true

	// Cancellation is honoured between episodes only. Aborting a probe would
	// leave the carried search window half updated.
	probeCtx := context.WithoutCancel(ctx)

	var found []domain.Segment
	for _, ep := range queue {
		if ep.IsAnalyzed(mode) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return found, err
		}

		_, maximum := a.settings.Bounds(domain.ModeCredits, ep.IsMovie)
		log := a.logger.With("episode", ep.EpisodeID)

		if firstEpisode {
			searchStart = minimum
			if seeded, ok := a.chapterSeed(probeCtx, ep, minimum, maximum, searchDistance); ok {
				searchStart = seeded
				log.Debug("search seeded from chapters", "search_start", searchStart)
			} else {
				start, ok, err := a.prescan(probeCtx, ep, minimum, maximum, searchDistance)
				if err != nil {
					log.Warn("black frame pre-scan failed", "error", err)
					continue
				}
				if !ok {
					log.Debug("no black frames near the end, skipping")
					continue
				}
				searchStart = start
			}
			firstEpisode = false
		}

		seg, err := a.AnalyzeMediaFile(probeCtx, ep, searchStart, searchDistance)
		if err != nil || !seg.Valid() {
			if err != nil {
				log.Warn("black frame search failed", "error", err)
			} else {
				log.Debug("black frame search found no credits")
			}
			searchStart = minimum
			firstEpisode = true
			continue
		}

		ep.SetAnalyzed(mode, true)
		found = append(found, seg)

		// Neighbouring episodes usually share credit timing, so the next
		// search is centred just beyond this boundary.
		searchStart = min(ep.Duration-seg.Start()+0.5*searchDistance, maximum)
	}
	return found, nil
}

// AnalyzeMediaFile bisects between searchStart and searchStart-searchDistance
// (seconds from the end) for the earliest black frame of the credits. The
// bracket widens when the boundary turns out to lie outside it. An invalid
// segment means no black frame was ever observed.
func (a *BlackFrameAnalyzer) AnalyzeMediaFile(ctx context.Context, ep *domain.QueuedEpisode, searchStart, searchDistance float64) (domain.Segment, error) {
	minimum, maximum := a.settings.Bounds(domain.ModeCredits, ep.IsMovie)
	maximum = min(maximum, ep.Duration-probeLength)
	threshold := a.settings.BlackFrameMinimumPercentage

	upperLimit := min(searchStart, maximum)
	lowerLimit := max(searchStart-searchDistance, minimum)

	// start and end are offsets from the end of the file with start >= end.
	start, end := upperLimit, lowerLimit
	firstFrameTime := 0.0

	for probes := 0; start-end > maximumError; probes++ {
		if probes == maximumProbes {
			return domain.Segment{}, fmt.Errorf("bisection did not converge after %d probes", probes)
		}

		mid := (start + end) / 2
		scanTime := ep.Duration - mid
		window := domain.TimeRange{Start: scanTime, End: scanTime + probeLength}

		frames, err := a.sampler.DetectBlackFrames(ctx, ep, window, threshold)
		if err != nil {
			return domain.Segment{}, fmt.Errorf("probe at %.2fs: %w", scanTime, err)
		}

		if len(frames) == 0 {
			// Boundary is closer to the end of the file.
			start = mid - probeLength
			if mid-lowerLimit < maximumError {
				lowerLimit = max(lowerLimit-0.5*searchDistance, minimum)
				end = lowerLimit
			}
			continue
		}

		// Boundary is at or before this probe.
		end = mid
		firstFrameTime = frames[0].Time
		if upperLimit-mid < maximumError {
			upperLimit = min(upperLimit+0.5*searchDistance, maximum)
			start = upperLimit
		}
	}

	if firstFrameTime <= 0 {
		return domain.Segment{}, nil
	}
	return domain.NewSegment(ep.EpisodeID, firstFrameTime, ep.Duration), nil
}

// prescan walks away from the end of the file in searchDistance steps while
// short probes keep finding black frames. It reports false when the very
// first probe is clear, which means there is no black tail to bisect.
func (a *BlackFrameAnalyzer) prescan(ctx context.Context, ep *domain.QueuedEpisode, minimum, maximum, searchDistance float64) (float64, bool, error) {
	threshold := a.settings.BlackFrameMinimumPercentage
	probe := func(offset float64) (bool, error) {
		scanTime := ep.Duration - offset
		frames, err := a.sampler.DetectBlackFrames(ctx, ep, domain.TimeRange{Start: scanTime - prescanLength, End: scanTime}, threshold)
		return len(frames) > 0, err
	}

	// Probes never reach past the mode maximum or the start of the file.
	limit := min(maximum, ep.Duration-prescanLength)
	if limit < minimum {
		return 0, false, nil
	}

	searchStart := minimum
	black, err := probe(searchStart)
	if err != nil {
		return 0, false, err
	}
	for black && searchStart+searchDistance <= limit {
		searchStart += searchDistance
		if black, err = probe(searchStart); err != nil {
			return 0, false, err
		}
	}
	if black {
		searchStart = max(searchStart, limit)
	}

	if searchStart == minimum {
		return 0, false, nil
	}
	return searchStart, true, nil
}

// chapterSeed picks the last chapter that starts within the allowed credits
// range from the end and turns it into a search start.
func (a *BlackFrameAnalyzer) chapterSeed(ctx context.Context, ep *domain.QueuedEpisode, minimum, maximum, searchDistance float64) (float64, bool) {
	if a.chapters == nil {
		return 0, false
	}
	chapters, err := a.chapters.Chapters(ctx, ep)
	if err != nil {
		a.logger.Debug("chapters unavailable for seeding", "episode", ep.EpisodeID, "error", err)
		return 0, false
	}
	for i := len(chapters) - 1; i >= 0; i-- {
		offset := ep.Duration - chapters[i].Start
		if offset >= minimum && offset <= maximum {
			return min(offset+0.5*searchDistance, maximum), true
		}
	}
	return 0, false
}
