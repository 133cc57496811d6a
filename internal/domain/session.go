package domain

import "time"

// PlaybackSession is a live playback on one client device.
type PlaybackSession struct {
	SessionID string `json:"session_id"`
	DeviceID  string `json:"device_id"`
	UserID    string `json:"user_id"`
	Client    string `json:"client"`

	NowPlayingItemID string  `json:"now_playing_item_id"`
	SeasonID         string  `json:"season_id,omitempty"`
	EpisodeNumber    int     `json:"episode_number,omitempty"`
	PositionSeconds  float64 `json:"position_seconds"`

	StartedAt  time.Time `json:"started_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// IsPlaying reports whether the session currently has an item loaded.
func (s *PlaybackSession) IsPlaying() bool {
	return s.NowPlayingItemID != ""
}

// Touch updates LastSeenAt to now.
func (s *PlaybackSession) Touch() {
	s.LastSeenAt = time.Now()
}

// PlaybackEventType distinguishes playback lifecycle events.
type PlaybackEventType string

const (
	// PlaybackStarted is emitted when a device begins playing an item.
	PlaybackStarted PlaybackEventType = "playback.started"
	// PlaybackStopped is emitted when a device stops or finishes an item.
	PlaybackStopped PlaybackEventType = "playback.stopped"
)

// PlaybackEvent describes a start or stop of playback on a device.
type PlaybackEvent struct {
	Type    PlaybackEventType `json:"type"`
	Session PlaybackSession   `json:"session"`
}
