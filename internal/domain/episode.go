package domain

// QueuedEpisode is one unit of analysis work. Analyzers flip the analyzed
// flag for the mode they just processed; the flags live only as long as the
// batch that owns the episode.
type QueuedEpisode struct {
	EpisodeID     string  `json:"episode_id"`
	SeasonID      string  `json:"season_id"`
	SeriesName    string  `json:"series_name,omitempty"`
	Name          string  `json:"name,omitempty"`
	Path          string  `json:"path"`
	Duration      float64 `json:"duration"` // seconds
	EpisodeNumber int     `json:"episode_number,omitempty"`
	IsMovie       bool    `json:"is_movie"`

	analyzed map[Mode]bool
}

// IsAnalyzed reports whether the episode already has a result for mode.
func (e *QueuedEpisode) IsAnalyzed(mode Mode) bool {
	return e.analyzed[mode]
}

// SetAnalyzed records the analysis outcome for mode.
func (e *QueuedEpisode) SetAnalyzed(mode Mode, analyzed bool) {
	if e.analyzed == nil {
		e.analyzed = make(map[Mode]bool, len(Modes))
	}
	e.analyzed[mode] = analyzed
}

// GroupBySeason splits a queue into per-season queues. Seasons appear in the
// order their first episode appears and episodes keep their relative order.
func GroupBySeason(queue []*QueuedEpisode) [][]*QueuedEpisode {
	index := make(map[string]int)
	var seasons [][]*QueuedEpisode
	for _, ep := range queue {
		i, ok := index[ep.SeasonID]
		if !ok {
			i = len(seasons)
			index[ep.SeasonID] = i
			seasons = append(seasons, nil)
		}
		seasons[i] = append(seasons[i], ep)
	}
	return seasons
}
