package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/skipper/internal/domain"
)

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{
		"chapters": [
			{"id": 2, "start_time": "1320.000000", "end_time": "1400.000000", "tags": {"title": "Credits"}},
			{"id": 0, "start_time": "0.000000", "end_time": "95.000000", "tags": {"title": "Intro"}},
			{"id": 1, "start_time": "95.000000", "end_time": "1320.000000"},
			{"id": 3, "start_time": "N/A"}
		],
		"format": {"filename": "ep.mkv", "duration": "1400.512000"}
	}`)

	res, err := parseProbeOutput(data)
	require.NoError(t, err)
	assert.InDelta(t, 1400.512, res.Duration, 1e-9)
	assert.Equal(t, []domain.Chapter{
		{Name: "Intro", Start: 0},
		{Name: "", Start: 95},
		{Name: "Credits", Start: 1320},
	}, res.Chapters)
}

func TestParseProbeOutput_Invalid(t *testing.T) {
	_, err := parseProbeOutput([]byte("not json"))
	assert.Error(t, err)
}

func TestParseBlackFrameOutput(t *testing.T) {
	output := `Input #0, matroska,webm, from 'ep.mkv':
[Parsed_blackframe_0 @ 0x5581c0] frame:0 pblack:92 pts:0 t:0.000000 type:I last_keyframe:0
[Parsed_blackframe_0 @ 0x5581c0] frame:1 pblack:100 pts:40 t:0.040000 type:P last_keyframe:0
[Parsed_blackframe_0 @ 0x5581c0] frame:bad pblack:x pts:80 t:0.080000 type:P last_keyframe:0
frame=   50 fps=0.0 q=-0.0 Lsize=N/A time=00:00:02.00 bitrate=N/A speed=  25x
`
	frames := parseBlackFrameOutput(output, 1410)
	require.Len(t, frames, 2)
	assert.InDelta(t, 1410, frames[0].Time, 1e-9)
	assert.Equal(t, 92, frames[0].Percent)
	assert.InDelta(t, 1410.04, frames[1].Time, 1e-9)
	assert.Equal(t, 100, frames[1].Percent)
}

func TestDetectBlackFrames_EmptyWindow(t *testing.T) {
	f := NewFFmpeg("/nonexistent/ffmpeg", nil)
	frames, err := f.DetectBlackFrames(t.Context(), &domain.QueuedEpisode{Path: "x"}, domain.TimeRange{Start: 5, End: 5}, 85)
	require.NoError(t, err)
	assert.Empty(t, frames)
}
