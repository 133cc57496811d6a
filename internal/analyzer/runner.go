package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/listenupapp/skipper/internal/config"
	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/errors"
	"github.com/listenupapp/skipper/internal/id"
)

// SegmentWriter persists detected segments.
type SegmentWriter interface {
	Upsert(ctx context.Context, episodeID string, mode domain.Mode, seg domain.Segment) error
}

// SettingsSource provides the settings snapshot for a batch.
type SettingsSource interface {
	Current() config.Settings
}

// BatchReport summarises one Run.
type BatchReport struct {
	ID         string              `json:"id"`
	Seasons    int                 `json:"seasons"`
	Episodes   int                 `json:"episodes"`
	Stored     map[domain.Mode]int `json:"stored"`
	Failed     int                 `json:"failed"`
	Canceled   bool                `json:"canceled"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// RunnerDeps are the collaborators of a Runner. Matcher and LockPath are
// optional.
type RunnerDeps struct {
	Store    SegmentWriter
	Settings SettingsSource
	Chapters ChapterSource
	Sampler  FrameSampler
	Matcher  IntroMatcher
	LockPath string
	Logger   *slog.Logger
}

// Runner executes analysis batches. At most one batch runs at a time in the
// process, and with a lock path configured, across processes sharing it.
type Runner struct {
	mu   sync.Mutex
	deps RunnerDeps
}

// NewRunner creates a Runner.
func NewRunner(deps RunnerDeps) *Runner {
	return &Runner{deps: deps}
}

// Run analyzes queue for each mode, season by season, and stores every valid
// segment. It returns errors.ErrBusy when another batch holds the lock. On
// cancellation the segments found so far are stored, the report is marked
// canceled and an errors.ErrCanceled is returned alongside it.
func (r *Runner) Run(ctx context.Context, queue []*domain.QueuedEpisode, modes []domain.Mode) (*BatchReport, error) {
	if !r.mu.TryLock() {
		return nil, errors.ErrBusy
	}
	defer r.mu.Unlock()

	if r.deps.LockPath != "" {
		lock := flock.New(r.deps.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire batch lock: %w", err)
		}
		if !ok {
			return nil, errors.ErrBusy.WithDetails(map[string]string{"lock": r.deps.LockPath})
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				r.deps.Logger.Warn("failed to release batch lock", "error", err)
			}
		}()
	}

	settings := r.deps.Settings.Current()
	consensus := NewConsensusAdjuster(settings.ConsensusTolerance)
	report := &BatchReport{
		ID:        id.MustGenerate(id.PrefixBatch),
		Stored:    make(map[domain.Mode]int, len(modes)),
		StartedAt: time.Now(),
	}
	log := r.deps.Logger.With("batch", report.ID)
	log.Info("analysis batch started", "episodes", len(queue), "modes", modes)

	// Writes must land even after cancellation.
	storeCtx := context.WithoutCancel(ctx)

seasons:
	for _, season := range domain.GroupBySeason(queue) {
		if ctx.Err() != nil {
			report.Canceled = true
			break
		}
		report.Seasons++
		report.Episodes += len(season)
		seasonID := season[0].SeasonID

		for _, mode := range modes {
			action := settings.AnalyzerAction(seasonID, mode)
			if !action.RunsAnalysis() {
				log.Debug("analysis disabled for season", "season", seasonID, "mode", mode, "action", action)
				continue
			}

			var found []domain.Segment
			for _, a := range r.chain(settings, mode, action) {
				segs, err := a.AnalyzeMediaFiles(ctx, season, mode)
				found = append(found, segs...)
				if err != nil {
					if ctx.Err() != nil {
						report.Canceled = true
						break
					}
					report.Failed++
					log.Warn("analyzer failed", "analyzer", a.Name(), "season", seasonID, "mode", mode, "error", err)
				}
			}

			for _, seg := range consensus.AdjustSegments(season, mode, found) {
				if !seg.Valid() {
					continue
				}
				if err := r.deps.Store.Upsert(storeCtx, seg.EpisodeID, mode, seg); err != nil {
					report.Failed++
					log.Warn("failed to store segment", "episode", seg.EpisodeID, "mode", mode, "error", err)
					continue
				}
				report.Stored[mode]++
			}

			if report.Canceled {
				break seasons
			}
		}
	}

	report.FinishedAt = time.Now()
	log.Info("analysis batch finished",
		"seasons", report.Seasons,
		"stored", report.Stored,
		"failed", report.Failed,
		"canceled", report.Canceled,
		"duration", report.FinishedAt.Sub(report.StartedAt))

	if report.Canceled {
		return report, errors.ErrCanceled.WithCause(context.Cause(ctx))
	}
	return report, nil
}

// chain returns the analyzers to run for mode under action, in order.
func (r *Runner) chain(settings config.Settings, mode domain.Mode, action domain.AnalyzerAction) []Analyzer {
	chapter := NewChapterAnalyzer(r.deps.Chapters, settings, r.deps.Logger)
	blackframe := NewBlackFrameAnalyzer(r.deps.Sampler, r.deps.Chapters, settings, r.deps.Logger)

	var fingerprint Analyzer
	if r.deps.Matcher != nil {
		fingerprint = NewFingerprintAnalyzer(r.deps.Matcher, r.deps.Logger)
	}

	var chain []Analyzer
	add := func(a Analyzer) {
		if a != nil {
			chain = append(chain, a)
		}
	}

	switch action {
	case domain.ActionChapter:
		add(chapter)
	case domain.ActionChromaprint:
		if mode == domain.ModeIntroduction {
			add(fingerprint)
		}
	case domain.ActionBlackFrame:
		if mode == domain.ModeCredits {
			add(blackframe)
		}
	default:
		add(chapter)
		if mode == domain.ModeIntroduction {
			add(fingerprint)
		} else {
			add(blackframe)
		}
	}
	return chain
}
