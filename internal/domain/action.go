package domain

import (
	"strings"

	"github.com/listenupapp/skipper/internal/errors"
)

// AnalyzerAction controls how a season is treated for one mode.
type AnalyzerAction string

const (
	// ActionDefault runs every applicable analyzer.
	ActionDefault AnalyzerAction = "default"
	// ActionChapter runs only the chapter analyzer.
	ActionChapter AnalyzerAction = "chapter"
	// ActionChromaprint runs only the audio fingerprint analyzer.
	ActionChromaprint AnalyzerAction = "chromaprint"
	// ActionBlackFrame runs only the black frame analyzer.
	ActionBlackFrame AnalyzerAction = "blackframe"
	// ActionNone disables analysis for the season.
	ActionNone AnalyzerAction = "none"
	// ActionSkip disables analysis and opts the season out of auto skip.
	ActionSkip AnalyzerAction = "skip"
	// ActionAutomaticallySkip forces auto skip for the season on every client.
	ActionAutomaticallySkip AnalyzerAction = "automatically_skip"
)

// ParseAnalyzerAction converts a settings value into an AnalyzerAction.
// An empty string maps to ActionDefault.
func ParseAnalyzerAction(s string) (AnalyzerAction, error) {
	a := AnalyzerAction(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case "":
		return ActionDefault, nil
	case ActionDefault, ActionChapter, ActionChromaprint, ActionBlackFrame,
		ActionNone, ActionSkip, ActionAutomaticallySkip:
		return a, nil
	default:
		return "", errors.Validationf("unknown analyzer action %q", s)
	}
}

// RunsAnalysis reports whether any analyzer should run under this action.
func (a AnalyzerAction) RunsAnalysis() bool {
	return a != ActionNone && a != ActionSkip
}

// ActionResolver looks up the configured action for a season.
type ActionResolver interface {
	AnalyzerAction(seasonID string, mode Mode) AnalyzerAction
}
