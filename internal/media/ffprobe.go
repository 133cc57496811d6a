// Package media runs ffprobe and ffmpeg against episode files to provide
// chapter markers and black frame samples to the analyzers.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strconv"

	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/syncmap"
)

// ProbeResult is the subset of ffprobe output the analyzers need.
type ProbeResult struct {
	Duration float64
	Chapters []domain.Chapter
}

// FFprobe reads container metadata. Results are cached per path for the
// lifetime of the value, which is expected to be one analysis batch.
type FFprobe struct {
	path   string
	logger *slog.Logger
	cache  *syncmap.Map[string, *ProbeResult]
}

// NewFFprobe creates a prober that runs the binary at path.
func NewFFprobe(path string, logger *slog.Logger) *FFprobe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFprobe{path: path, logger: logger, cache: syncmap.New[string, *ProbeResult]()}
}

// Chapters implements analyzer.ChapterSource.
func (p *FFprobe) Chapters(ctx context.Context, ep *domain.QueuedEpisode) ([]domain.Chapter, error) {
	res, err := p.Probe(ctx, ep.Path)
	if err != nil {
		return nil, err
	}
	return res.Chapters, nil
}

// Probe runs ffprobe on path.
func (p *FFprobe) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if res, ok := p.cache.Load(path); ok {
		return res, nil
	}

	cmd := exec.CommandContext(ctx, p.path, //#nosec G204 -- binary and file come from operator config
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_chapters",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	res, err := parseProbeOutput(output)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("probed media file", "path", path, "duration", res.Duration, "chapters", len(res.Chapters))
	p.cache.Store(path, res)
	return res, nil
}

type ffprobeOutput struct {
	Format   ffprobeFormat    `json:"format"`
	Chapters []ffprobeChapter `json:"chapters"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeChapter struct {
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Tags      map[string]string `json:"tags"`
}

func parseProbeOutput(data []byte) (*ProbeResult, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	res := &ProbeResult{Chapters: make([]domain.Chapter, 0, len(out.Chapters))}
	if out.Format.Duration != "" {
		if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
			res.Duration = d
		}
	}
	for _, ch := range out.Chapters {
		start, err := strconv.ParseFloat(ch.StartTime, 64)
		if err != nil {
			continue
		}
		res.Chapters = append(res.Chapters, domain.Chapter{Name: ch.Tags["title"], Start: start})
	}
	slices.SortStableFunc(res.Chapters, func(a, b domain.Chapter) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	return res, nil
}
