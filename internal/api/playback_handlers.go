package api

import (
	"net/http"

	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/http/response"
)

// PlaybackStartRequest reports that a device started playing an item.
type PlaybackStartRequest struct {
	SessionID       string  `json:"session_id"`
	DeviceID        string  `json:"device_id" validate:"required"`
	UserID          string  `json:"user_id"`
	Client          string  `json:"client"`
	ItemID          string  `json:"item_id" validate:"required"`
	SeasonID        string  `json:"season_id"`
	EpisodeNumber   int     `json:"episode_number" validate:"gte=0"`
	PositionSeconds float64 `json:"position_seconds" validate:"gte=0"`
}

// PlaybackProgressRequest reports the current position of a device.
type PlaybackProgressRequest struct {
	DeviceID        string  `json:"device_id" validate:"required"`
	PositionSeconds float64 `json:"position_seconds" validate:"gte=0"`
}

// PlaybackStopRequest reports that a device stopped playback.
type PlaybackStopRequest struct {
	DeviceID string `json:"device_id" validate:"required"`
}

func (s *Server) handlePlaybackStart(w http.ResponseWriter, r *http.Request) {
	var req PlaybackStartRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if !s.allowDevice(w, req.DeviceID) {
		return
	}

	session, err := s.registry.Start(domain.PlaybackSession{
		SessionID:        req.SessionID,
		DeviceID:         req.DeviceID,
		UserID:           req.UserID,
		Client:           req.Client,
		NowPlayingItemID: req.ItemID,
		SeasonID:         req.SeasonID,
		EpisodeNumber:    req.EpisodeNumber,
		PositionSeconds:  req.PositionSeconds,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.JSON(w, http.StatusCreated, session, s.logger)
}

func (s *Server) handlePlaybackProgress(w http.ResponseWriter, r *http.Request) {
	var req PlaybackProgressRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if !s.allowDevice(w, req.DeviceID) {
		return
	}

	session, err := s.registry.Progress(req.DeviceID, req.PositionSeconds)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, session, s.logger)
}

func (s *Server) handlePlaybackStop(w http.ResponseWriter, r *http.Request) {
	var req PlaybackStopRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	// Stop is idempotent; an unknown device is not an error.
	s.registry.Stop(req.DeviceID)
	response.NoContent(w)
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.registry.Sessions(), s.logger)
}
