// Package sse streams playback commands and segment updates to connected
// clients over Server-Sent Events.
package sse

import (
	"time"

	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/id"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventSeek tells a client to jump to a position in the current item.
	EventSeek EventType = "playback.seek"
	// EventNotify asks a client to show a short message to the viewer.
	EventNotify EventType = "playback.notify"
	// EventSegmentUpdated announces a newly stored or replaced segment.
	EventSegmentUpdated EventType = "segment.updated"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// NotificationTimeout is how long clients keep a notification on screen.
const NotificationTimeout = 2 * time.Second

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	ID        string    `json:"id"`
	Type      EventType `json:"type"`

	// DeviceID restricts delivery to clients of one device. Empty means
	// every client receives the event.
	DeviceID string `json:"-"`
}

// SeekCommandData is the payload of a seek command.
type SeekCommandData struct {
	SessionID     string  `json:"session_id"`
	ItemID        string  `json:"item_id"`
	TargetSeconds float64 `json:"target_seconds"`
}

// NotifyCommandData is the payload of a notification command.
type NotifyCommandData struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	TimeoutMs int64  `json:"timeout_ms"`
}

// SegmentEventData is the payload for segment updates.
type SegmentEventData struct {
	EpisodeID string      `json:"episode_id"`
	Mode      domain.Mode `json:"mode"`
	Start     float64     `json:"start"`
	End       float64     `json:"end"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func newEvent(t EventType, deviceID string, data any) Event {
	// Clients only log the id, so a failed draw leaves it empty.
	eventID, _ := id.Generate(id.PrefixEvent)
	return Event{
		ID:        eventID,
		Type:      t,
		DeviceID:  deviceID,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewSeekEvent creates a seek command for the device playing s.
func NewSeekEvent(s domain.PlaybackSession, targetSeconds float64) Event {
	return newEvent(EventSeek, s.DeviceID, SeekCommandData{
		SessionID:     s.SessionID,
		ItemID:        s.NowPlayingItemID,
		TargetSeconds: targetSeconds,
	})
}

// NewNotifyEvent creates a notification command for the device playing s.
func NewNotifyEvent(s domain.PlaybackSession, text string) Event {
	return newEvent(EventNotify, s.DeviceID, NotifyCommandData{
		SessionID: s.SessionID,
		Text:      text,
		TimeoutMs: NotificationTimeout.Milliseconds(),
	})
}

// NewSegmentUpdatedEvent creates a broadcast segment update event.
func NewSegmentUpdatedEvent(mode domain.Mode, seg domain.Segment) Event {
	return newEvent(EventSegmentUpdated, "", SegmentEventData{
		EpisodeID: seg.EpisodeID,
		Mode:      mode,
		Start:     seg.Start(),
		End:       seg.End(),
	})
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
