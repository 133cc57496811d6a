package analyzer

import (
	"context"
	"log/slog"

	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/domain"
)

// ChapterAnalyzer detects segments from chapter names.
type ChapterAnalyzer struct {
	chapters ChapterSource
	settings config.Settings
	logger   *slog.Logger
}

// NewChapterAnalyzer creates a chapter analyzer bound to a settings snapshot.
func NewChapterAnalyzer(chapters ChapterSource, settings config.Settings, logger *slog.Logger) *ChapterAnalyzer {
	return &ChapterAnalyzer{chapters: chapters, settings: settings, logger: logger}
}

// Name implements Analyzer.
func (a *ChapterAnalyzer) Name() string { return "chapter" }

// AnalyzeMediaFiles implements Analyzer.
func (a *ChapterAnalyzer) AnalyzeMediaFiles(ctx context.Context, queue []*domain.QueuedEpisode, mode domain.Mode) ([]domain.Segment, error) {
	pattern, err := CompilePattern(a.settings.Pattern(mode))
	if err != nil {
		return nil, err
	}
	if pattern == nil {
		return nil, nil
	}

	var found []domain.Segment
	for _, ep := range queue {
		if ep.IsAnalyzed(mode) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return found, err
		}

		chapters, err := a.chapters.Chapters(ctx, ep)
		if err != nil {
			a.logger.Warn("failed to read chapters", "episode", ep.EpisodeID, "error", err)
			continue
		}
		if len(chapters) == 0 {
			continue
		}

		seg, ok := a.FindMatchingChapter(ep, chapters, pattern, mode)
		if !ok {
			continue
		}
		ep.SetAnalyzed(mode, true)
		found = append(found, seg)
	}
	return found, nil
}

// FindMatchingChapter returns the first chapter, in scan order, whose name
// matches and whose duration lies within the mode's bounds. Introductions are
// scanned from the start and credits from the end. A matching chapter is
// rejected when its neighbour in scan order matches too.
func (a *ChapterAnalyzer) FindMatchingChapter(ep *domain.QueuedEpisode, chapters []domain.Chapter, pattern *Pattern, mode domain.Mode) (domain.Segment, bool) {
	minimum, maximum := a.settings.Bounds(mode, ep.IsMovie)
	reversed := mode == domain.ModeCredits
	count := len(chapters)

	for n := range count {
		i := n
		if reversed {
			i = count - 1 - n
		}
		chapter := chapters[i]
		if chapter.Name == "" {
			continue
		}

		// The last chapter runs to the end of the file.
		end := ep.Duration
		if i+1 < count {
			end = chapters[i+1].Start
		}
		current := domain.TimeRange{Start: chapter.Start, End: end}

		log := a.logger.With("episode", ep.EpisodeID, "chapter", chapter.Name, "start", current.Start, "end", current.End)

		if d := current.Duration(); d < minimum || d > maximum {
			log.Debug("chapter duration out of bounds", "duration", d)
			continue
		}
		if !a.matches(log, pattern, chapter.Name) {
			continue
		}

		adjacent := i + 1
		if reversed {
			adjacent = i - 1
		}
		if adjacent >= 0 && adjacent < count && a.matches(log, pattern, chapters[adjacent].Name) {
			log.Debug("adjacent chapter also matches", "adjacent", chapters[adjacent].Name)
			continue
		}

		log.Debug("chapter matched", "mode", mode)
		return domain.Segment{EpisodeID: ep.EpisodeID, Range: current}, true
	}
	return domain.Segment{}, false
}

func (a *ChapterAnalyzer) matches(log *slog.Logger, pattern *Pattern, name string) bool {
	if name == "" {
		return false
	}
	ok, err := pattern.Match(name)
	if err != nil {
		log.Debug("chapter pattern evaluation failed", "pattern", pattern.expr, "name", name, "error", err)
		return false
	}
	return ok
}
