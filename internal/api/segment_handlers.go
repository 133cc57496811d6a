package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/errors"
	"github.com/listenupapp/skipper/internal/http/response"
)

// SegmentResponse is the API form of a stored segment.
type SegmentResponse struct {
	EpisodeID string      `json:"episode_id"`
	Mode      domain.Mode `json:"mode"`
	Start     float64     `json:"start"`
	End       float64     `json:"end"`
	Valid     bool        `json:"valid"`
}

func (s *Server) handleGetSegment(w http.ResponseWriter, r *http.Request) {
	episodeID := chi.URLParam(r, "episodeID")
	mode, err := domain.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	seg, ok, err := s.segments.Get(r.Context(), episodeID, mode)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if !ok {
		response.HandleError(w, errors.NotFoundf("no %s segment for episode %s", mode, episodeID), s.logger)
		return
	}
	response.Success(w, SegmentResponse{
		EpisodeID: seg.EpisodeID,
		Mode:      mode,
		Start:     seg.Start(),
		End:       seg.End(),
		Valid:     seg.Valid(),
	}, s.logger)
}

func (s *Server) handleListSegments(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		raw = string(domain.ModeCredits)
	}
	mode, err := domain.ParseMode(raw)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	records, err := s.segments.List(r.Context(), mode)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, records, s.logger)
}
