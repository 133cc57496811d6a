package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/skipper/internal/errors"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "introduction", want: ModeIntroduction},
		{in: " Intro ", want: ModeIntroduction},
		{in: "CREDITS", want: ModeCredits},
		{in: "recap", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegmentValidity(t *testing.T) {
	assert.True(t, NewSegment("ep", 10, 20).Valid())
	assert.False(t, NewSegment("ep", 20, 20).Valid())
	assert.False(t, NewSegment("ep", 20, 10).Valid())
	assert.False(t, Segment{}.Valid())

	r := TimeRange{Start: 10, End: 20}
	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(20))
	assert.False(t, r.Contains(20.01))
	assert.Equal(t, 10.0, r.Duration())
}

func TestParseAnalyzerAction(t *testing.T) {
	a, err := ParseAnalyzerAction("")
	require.NoError(t, err)
	assert.Equal(t, ActionDefault, a)

	a, err = ParseAnalyzerAction(" BlackFrame ")
	require.NoError(t, err)
	assert.Equal(t, ActionBlackFrame, a)

	_, err = ParseAnalyzerAction("fingerprint")
	assert.ErrorIs(t, err, errors.ErrValidation)

	assert.False(t, ActionNone.RunsAnalysis())
	assert.False(t, ActionSkip.RunsAnalysis())
	assert.True(t, ActionAutomaticallySkip.RunsAnalysis())
	assert.True(t, ActionChapter.RunsAnalysis())
}

func TestAnalyzedFlags(t *testing.T) {
	ep := &QueuedEpisode{EpisodeID: "ep"}
	assert.False(t, ep.IsAnalyzed(ModeCredits))

	ep.SetAnalyzed(ModeCredits, true)
	assert.True(t, ep.IsAnalyzed(ModeCredits))
	assert.False(t, ep.IsAnalyzed(ModeIntroduction))
}

func TestGroupBySeason(t *testing.T) {
	queue := []*QueuedEpisode{
		{EpisodeID: "a1", SeasonID: "a"},
		{EpisodeID: "b1", SeasonID: "b"},
		{EpisodeID: "a2", SeasonID: "a"},
		{EpisodeID: "b2", SeasonID: "b"},
		{EpisodeID: "c1", SeasonID: "c"},
	}

	seasons := GroupBySeason(queue)
	require.Len(t, seasons, 3)
	ids := func(eps []*QueuedEpisode) []string {
		out := make([]string, len(eps))
		for i, e := range eps {
			out[i] = e.EpisodeID
		}
		return out
	}
	assert.Equal(t, []string{"a1", "a2"}, ids(seasons[0]))
	assert.Equal(t, []string{"b1", "b2"}, ids(seasons[1]))
	assert.Equal(t, []string{"c1"}, ids(seasons[2]))
	assert.Empty(t, GroupBySeason(nil))
}
