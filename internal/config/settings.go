package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/listenupapp/skipper/internal/domain"
	domainerrors "github.com/listenupapp/skipper/internal/errors"
	"github.com/listenupapp/skipper/internal/validation"
)

// Default chapter name patterns.
const (
	DefaultIntroPattern   = `(^|\s)(Intro|Introduction|OP|Opening)(?!\sEnd)(\s|$)`
	DefaultCreditsPattern = `(^|\s)(Credits?|ED|Ending|Outro)(?!\sEnd)(\s|$)`
)

// SeasonAction overrides analysis for one season. Values are parsed with
// domain.ParseAnalyzerAction; empty means default.
type SeasonAction struct {
	Introduction string `toml:"introduction"`
	Credits      string `toml:"credits"`
}

// Settings is the live-reloadable analysis and auto skip configuration.
// Durations are whole seconds. A Settings value handed out by LiveSettings
// is shared and must be treated as read-only.
type Settings struct {
	ChapterIntroPattern   string `toml:"chapter_analyzer_introduction_pattern"`
	ChapterCreditsPattern string `toml:"chapter_analyzer_ending_credits_pattern"`

	MinimumIntroDuration        int `toml:"minimum_intro_duration" validate:"gte=1"`
	MaximumIntroDuration        int `toml:"maximum_intro_duration" validate:"gtfield=MinimumIntroDuration"`
	MinimumCreditsDuration      int `toml:"minimum_credits_duration" validate:"gte=1"`
	MaximumCreditsDuration      int `toml:"maximum_credits_duration" validate:"gtfield=MinimumCreditsDuration"`
	MaximumMovieCreditsDuration int `toml:"maximum_movie_credits_duration" validate:"gtefield=MaximumCreditsDuration"`

	BlackFrameMinimumPercentage int     `toml:"black_frame_minimum_percentage" validate:"gte=1,lte=100"`
	ConsensusTolerance          float64 `toml:"consensus_tolerance" validate:"gte=0"`

	AutoSkipCredits                 bool   `toml:"auto_skip_credits"`
	ClientList                      string `toml:"client_list"`
	SecondsOfCreditsStartToPlay     int    `toml:"seconds_of_credits_start_to_play" validate:"gte=0"`
	RemainingSecondsOfIntro         int    `toml:"remaining_seconds_of_intro" validate:"gte=0"`
	SkipFirstEpisode                bool   `toml:"skip_first_episode"`
	AutoSkipCreditsNotificationText string `toml:"auto_skip_credits_notification_text"`

	SeasonActions map[string]SeasonAction `toml:"season_actions"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		ChapterIntroPattern:         DefaultIntroPattern,
		ChapterCreditsPattern:       DefaultCreditsPattern,
		MinimumIntroDuration:        15,
		MaximumIntroDuration:        120,
		MinimumCreditsDuration:      15,
		MaximumCreditsDuration:      450,
		MaximumMovieCreditsDuration: 900,
		BlackFrameMinimumPercentage: 85,
		ConsensusTolerance:          5,
		RemainingSecondsOfIntro:     2,
	}
}

// LoadSettings reads a TOML settings file layered over DefaultSettings.
// A missing file yields the defaults.
func LoadSettings(path string, v *validation.Validator) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path) //#nosec G304 -- operator supplied path
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, domainerrors.Wrap(err, domainerrors.CodeValidation, "parse settings")
	}
	if err := s.Validate(v); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// SaveSettings writes s to path as TOML.
func SaveSettings(path string, s Settings) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Validate checks field ranges and the per-season action values.
func (s Settings) Validate(v *validation.Validator) error {
	if err := v.Validate(s); err != nil {
		return err
	}
	for season, a := range s.SeasonActions {
		for _, raw := range []string{a.Introduction, a.Credits} {
			if _, err := domain.ParseAnalyzerAction(raw); err != nil {
				return domainerrors.Validationf("season %s: %v", season, err)
			}
		}
	}
	return nil
}

// Clients returns the auto skip client allow-list with blanks removed.
func (s Settings) Clients() []string {
	var out []string
	for _, c := range strings.Split(s.ClientList, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Pattern returns the chapter name pattern for mode.
func (s Settings) Pattern(mode domain.Mode) string {
	if mode == domain.ModeCredits {
		return s.ChapterCreditsPattern
	}
	return s.ChapterIntroPattern
}

// Bounds returns the allowed segment duration range in seconds for mode.
func (s Settings) Bounds(mode domain.Mode, isMovie bool) (minimum, maximum float64) {
	if mode == domain.ModeIntroduction {
		return float64(s.MinimumIntroDuration), float64(s.MaximumIntroDuration)
	}
	if isMovie {
		return float64(s.MinimumCreditsDuration), float64(s.MaximumMovieCreditsDuration)
	}
	return float64(s.MinimumCreditsDuration), float64(s.MaximumCreditsDuration)
}

// AnalyzerAction implements domain.ActionResolver. Invalid values were
// rejected by Validate, so they resolve to the default here.
func (s Settings) AnalyzerAction(seasonID string, mode domain.Mode) domain.AnalyzerAction {
	a, ok := s.SeasonActions[seasonID]
	if !ok {
		return domain.ActionDefault
	}
	raw := a.Introduction
	if mode == domain.ModeCredits {
		raw = a.Credits
	}
	action, err := domain.ParseAnalyzerAction(raw)
	if err != nil {
		return domain.ActionDefault
	}
	return action
}
