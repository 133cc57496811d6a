package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/skipper/internal/domain"
	domainerrors "github.com/listenupapp/skipper/internal/errors"
	"github.com/listenupapp/skipper/internal/validation"
)

func writeSettings(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.toml"), validation.New())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadSettings_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipper.toml")
	writeSettings(t, path, `
auto_skip_credits = true
client_list = "Kodi, Android TV ,,"
maximum_credits_duration = 300

[season_actions.s1]
introduction = "chapter"
credits = "skip"
`)

	s, err := LoadSettings(path, validation.New())
	require.NoError(t, err)

	assert.True(t, s.AutoSkipCredits)
	assert.Equal(t, []string{"Kodi", "Android TV"}, s.Clients())
	assert.Equal(t, 300, s.MaximumCreditsDuration)
	assert.Equal(t, 15, s.MinimumCreditsDuration, "unset keys keep defaults")
	assert.Equal(t, domain.ActionChapter, s.AnalyzerAction("s1", domain.ModeIntroduction))
	assert.Equal(t, domain.ActionSkip, s.AnalyzerAction("s1", domain.ModeCredits))
	assert.Equal(t, domain.ActionDefault, s.AnalyzerAction("other", domain.ModeCredits))
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "inverted intro bounds", body: "minimum_intro_duration = 200\n"},
		{name: "percentage out of range", body: "black_frame_minimum_percentage = 101\n"},
		{name: "unknown action", body: "[season_actions.s1]\ncredits = \"sometimes\"\n"},
		{name: "not toml", body: "auto_skip_credits = = true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "skipper.toml")
			writeSettings(t, path, tt.body)

			_, err := LoadSettings(path, validation.New())
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
		})
	}
}

func TestSettings_Bounds(t *testing.T) {
	s := DefaultSettings()

	minimum, maximum := s.Bounds(domain.ModeIntroduction, true)
	assert.Equal(t, [2]float64{15, 120}, [2]float64{minimum, maximum})

	minimum, maximum = s.Bounds(domain.ModeCredits, false)
	assert.Equal(t, [2]float64{15, 450}, [2]float64{minimum, maximum})

	minimum, maximum = s.Bounds(domain.ModeCredits, true)
	assert.Equal(t, [2]float64{15, 900}, [2]float64{minimum, maximum})
}

func TestLiveSettings_ReplaceAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipper.toml")
	live, err := NewLiveSettings(path, validation.New(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	v0 := live.Version()

	next := live.Current()
	next.AutoSkipCredits = true
	require.NoError(t, live.Replace(next))
	assert.Greater(t, live.Version(), v0)
	assert.True(t, live.Current().AutoSkipCredits)

	// Persisted, so a fresh load sees it.
	loaded, err := LoadSettings(path, validation.New())
	require.NoError(t, err)
	assert.True(t, loaded.AutoSkipCredits)

	// A broken file keeps the previous value.
	writeSettings(t, path, "black_frame_minimum_percentage = 0\n")
	require.Error(t, live.Reload())
	assert.True(t, live.Current().AutoSkipCredits)
}

func TestLiveSettings_WatchPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipper.toml")
	writeSettings(t, path, "auto_skip_credits = false\n")

	live, err := NewLiveSettings(path, validation.New(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NoError(t, live.Watch(t.Context()))
	t.Cleanup(func() { _ = live.Close() })

	writeSettings(t, path, "auto_skip_credits = true\nclient_list = \"Kodi\"\n")

	require.Eventually(t, func() bool {
		return live.Current().AutoSkipCredits
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"Kodi"}, live.Current().Clients())
}
