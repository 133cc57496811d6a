package analyzer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/skipper/internal/domain"
)

func TestFingerprintAnalyzer_MarksMatchedEpisodes(t *testing.T) {
	e1 := episode("e1", "s1", 1400)
	e2 := episode("e2", "s1", 1400)
	e3 := episode("e3", "s1", 1400)
	matcher := &fakeMatcher{matches: map[string]domain.Segment{
		"e1": domain.NewSegment("e1", 5, 65),
		"e2": domain.NewSegment("e2", 6, 6), // degenerate
		"e3": domain.NewSegment("", 4, 64),
	}}
	a := NewFingerprintAnalyzer(matcher, discardLogger())

	segs, err := a.AnalyzeMediaFiles(t.Context(), []*domain.QueuedEpisode{e1, e2, e3}, domain.ModeIntroduction)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "e1", segs[0].EpisodeID)
	assert.Equal(t, "e3", segs[1].EpisodeID)
	assert.True(t, e1.IsAnalyzed(domain.ModeIntroduction))
	assert.False(t, e2.IsAnalyzed(domain.ModeIntroduction))
}

func TestFingerprintAnalyzer_NothingToCompare(t *testing.T) {
	matcher := &fakeMatcher{}
	a := NewFingerprintAnalyzer(matcher, discardLogger())

	// A lone episode has no partner.
	segs, err := a.AnalyzeMediaFiles(t.Context(), []*domain.QueuedEpisode{episode("e1", "s1", 1400)}, domain.ModeIntroduction)
	require.NoError(t, err)
	assert.Empty(t, segs)

	// Everything already resolved.
	e1 := episode("e1", "s1", 1400)
	e2 := episode("e2", "s1", 1400)
	e1.SetAnalyzed(domain.ModeIntroduction, true)
	e2.SetAnalyzed(domain.ModeIntroduction, true)
	segs, err = a.AnalyzeMediaFiles(t.Context(), []*domain.QueuedEpisode{e1, e2}, domain.ModeIntroduction)
	require.NoError(t, err)
	assert.Empty(t, segs)
	assert.Zero(t, matcher.calls)
}

func TestFingerprintAnalyzer_ResolvedEpisodesAreReferences(t *testing.T) {
	e1 := episode("e1", "s1", 1400)
	e2 := episode("e2", "s1", 1400)
	e1.SetAnalyzed(domain.ModeIntroduction, true)
	matcher := &fakeMatcher{matches: map[string]domain.Segment{
		"e1": domain.NewSegment("e1", 0, 60),
		"e2": domain.NewSegment("e2", 1, 61),
	}}
	a := NewFingerprintAnalyzer(matcher, discardLogger())

	segs, err := a.AnalyzeMediaFiles(t.Context(), []*domain.QueuedEpisode{e1, e2}, domain.ModeIntroduction)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "e2", segs[0].EpisodeID)
	assert.Equal(t, 1, matcher.calls)
}

func TestFingerprintAnalyzer_CreditsAndErrors(t *testing.T) {
	queue := []*domain.QueuedEpisode{episode("e1", "s1", 1400), episode("e2", "s1", 1400)}
	matcher := &fakeMatcher{err: errors.New("fingerprint failed")}
	a := NewFingerprintAnalyzer(matcher, discardLogger())

	segs, err := a.AnalyzeMediaFiles(t.Context(), queue, domain.ModeCredits)
	require.NoError(t, err)
	assert.Empty(t, segs)
	assert.Zero(t, matcher.calls)

	_, err = a.AnalyzeMediaFiles(t.Context(), queue, domain.ModeIntroduction)
	assert.ErrorContains(t, err, "fingerprint failed")
}
