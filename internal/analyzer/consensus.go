package analyzer

import (
	"math"
	"slices"

	"github.com/listenupapp/skipper/internal/domain"
)

// consensusQuorum is the number of valid detections a season needs before
// any smoothing is applied.
const consensusQuorum = 3

// ConsensusAdjuster pulls per-episode detections of a season toward the
// season median. Detections further than Tolerance seconds from the median
// are left alone as genuine outliers.
//
// Introductions are compared by their start and end times. Credits are
// compared by their distance from the end of the episode, since episode
// lengths vary while credit lengths rarely do.
type ConsensusAdjuster struct {
	Tolerance float64
}

// NewConsensusAdjuster creates an adjuster with the given tolerance.
func NewConsensusAdjuster(tolerance float64) *ConsensusAdjuster {
	return &ConsensusAdjuster{Tolerance: tolerance}
}

// AdjustSegments returns one segment per input segment in the same order.
// Episode ids and validity are preserved and the result depends only on the
// input values.
func (c *ConsensusAdjuster) AdjustSegments(queue []*domain.QueuedEpisode, mode domain.Mode, segments []domain.Segment) []domain.Segment {
	out := slices.Clone(segments)
	if c.Tolerance <= 0 || len(segments) < consensusQuorum {
		return out
	}

	episodes := make(map[string]*domain.QueuedEpisode, len(queue))
	for _, ep := range queue {
		episodes[ep.EpisodeID] = ep
	}

	// Indices of valid segments per season.
	seasons := make(map[string][]int)
	var order []string
	for i, seg := range segments {
		ep, ok := episodes[seg.EpisodeID]
		if !ok || !seg.Valid() {
			continue
		}
		if _, seen := seasons[ep.SeasonID]; !seen {
			order = append(order, ep.SeasonID)
		}
		seasons[ep.SeasonID] = append(seasons[ep.SeasonID], i)
	}

	for _, season := range order {
		idx := seasons[season]
		if len(idx) < consensusQuorum {
			continue
		}
		if mode == domain.ModeCredits {
			c.adjustCredits(out, idx, episodes)
		} else {
			c.adjustIntros(out, idx)
		}
	}
	return out
}

func (c *ConsensusAdjuster) adjustCredits(out []domain.Segment, idx []int, episodes map[string]*domain.QueuedEpisode) {
	offsets := make([]float64, len(idx))
	for n, i := range idx {
		offsets[n] = episodes[out[i].EpisodeID].Duration - out[i].Start()
	}
	target := median(offsets)

	for n, i := range idx {
		if !c.near(offsets[n], target) {
			continue
		}
		ep := episodes[out[i].EpisodeID]
		adjusted := out[i]
		adjusted.Range.Start = ep.Duration - target
		if adjusted.Valid() && adjusted.Start() >= 0 {
			out[i] = adjusted
		}
	}
}

func (c *ConsensusAdjuster) adjustIntros(out []domain.Segment, idx []int) {
	starts := make([]float64, len(idx))
	ends := make([]float64, len(idx))
	for n, i := range idx {
		starts[n] = out[i].Start()
		ends[n] = out[i].End()
	}
	startTarget, endTarget := median(starts), median(ends)

	for n, i := range idx {
		adjusted := out[i]
		if c.near(starts[n], startTarget) {
			adjusted.Range.Start = startTarget
		}
		if c.near(ends[n], endTarget) {
			adjusted.Range.End = endTarget
		}
		if adjusted.Valid() {
			out[i] = adjusted
		}
	}
}

func (c *ConsensusAdjuster) near(v, target float64) bool {
	return math.Abs(v-target) <= c.Tolerance
}

// median returns the lower median so that the result is always one of the
// observed values.
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted[(len(sorted)-1)/2]
}
