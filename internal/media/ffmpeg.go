package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/listenupapp/skipper/internal/domain"
)

// blackThreshold is the luma value below which a pixel counts as black.
const blackThreshold = 32

// FFmpeg samples black frames with the blackframe filter.
type FFmpeg struct {
	path   string
	logger *slog.Logger
}

// NewFFmpeg creates a sampler that runs the binary at path.
func NewFFmpeg(path string, logger *slog.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{path: path, logger: logger}
}

// DetectBlackFrames implements analyzer.FrameSampler. ffmpeg reports frame
// times relative to the seek point; they are shifted back to file time.
func (f *FFmpeg) DetectBlackFrames(ctx context.Context, ep *domain.QueuedEpisode, window domain.TimeRange, minimumPercentage int) ([]domain.BlackFrame, error) {
	if window.Duration() <= 0 {
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, f.path, //#nosec G204 -- binary and file come from operator config
		"-hide_banner", "-nostats",
		"-ss", strconv.FormatFloat(max(window.Start, 0), 'f', 3, 64),
		"-i", ep.Path,
		"-t", strconv.FormatFloat(window.Duration(), 'f', 3, 64),
		"-an", "-dn", "-sn",
		"-vf", fmt.Sprintf("blackframe=amount=%d:threshold=%d", minimumPercentage, blackThreshold),
		"-f", "null", "-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// ffmpeg exits non-zero on some truncated files after printing useful
	// output, so only an empty log is treated as failure.
	if err := cmd.Run(); err != nil && stderr.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg blackframe failed: %w", err)
	}

	frames := parseBlackFrameOutput(stderr.String(), max(window.Start, 0))
	f.logger.Debug("sampled black frames",
		"episode", ep.EpisodeID, "start", window.Start, "end", window.End, "frames", len(frames))
	return frames, nil
}

// parseBlackFrameOutput parses blackframe filter lines such as
//
//	[Parsed_blackframe_0 @ 0x5581] frame:12 pblack:99 pts:12288 t:0.480000 type:P last_keyframe:0
func parseBlackFrameOutput(output string, offset float64) []domain.BlackFrame {
	var frames []domain.BlackFrame
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "pblack:") {
			continue
		}

		var (
			t, pct         float64
			hasT, hasBlack bool
		)
		for _, field := range strings.Fields(line) {
			if v, ok := strings.CutPrefix(field, "pblack:"); ok {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					pct, hasBlack = n, true
				}
			} else if v, ok := strings.CutPrefix(field, "t:"); ok {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					t, hasT = n, true
				}
			}
		}
		if hasT && hasBlack {
			frames = append(frames, domain.BlackFrame{Time: offset + t, Percent: int(pct)})
		}
	}
	return frames
}
