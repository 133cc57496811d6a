package domain

import (
	"strings"

	"github.com/listenupapp/skipper/internal/errors"
)

// Mode selects which part of an episode an analysis pass is looking for.
type Mode string

const (
	// ModeIntroduction locates the opening sequence.
	ModeIntroduction Mode = "introduction"
	// ModeCredits locates the end credits.
	ModeCredits Mode = "credits"
)

// Modes lists every analysis mode in processing order.
var Modes = []Mode{ModeIntroduction, ModeCredits}

// ParseMode converts a user supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "introduction", "intro":
		return ModeIntroduction, nil
	case "credits", "credit":
		return ModeCredits, nil
	default:
		return "", errors.Validationf("unknown analysis mode %q", s)
	}
}

// TimeRange is an interval of playback time in seconds.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the length of the range.
func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

// Contains reports whether t falls within [Start, End].
func (r TimeRange) Contains(t float64) bool {
	return t >= r.Start && t <= r.End
}

// Segment is a detected introduction or credits range for one episode.
// A zero-length range is a sentinel meaning nothing was detected.
type Segment struct {
	EpisodeID string    `json:"episode_id"`
	Range     TimeRange `json:"range"`
}

// NewSegment creates a segment for the given episode.
func NewSegment(episodeID string, start, end float64) Segment {
	return Segment{EpisodeID: episodeID, Range: TimeRange{Start: start, End: end}}
}

// Valid reports whether the segment covers a positive amount of time.
func (s Segment) Valid() bool {
	return s.Range.Duration() > 0
}

// Start returns the segment start in seconds.
func (s Segment) Start() float64 { return s.Range.Start }

// End returns the segment end in seconds.
func (s Segment) End() float64 { return s.Range.End }
