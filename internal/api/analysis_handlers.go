package api

import (
	"net/http"

	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/errors"
	"github.com/listenupapp/skipper/internal/http/response"
)

// AnalysisRequest asks for one analysis batch. Modes default to both.
type AnalysisRequest struct {
	Episodes []*domain.QueuedEpisode `json:"episodes" validate:"required,min=1,dive,required"`
	Modes    []string                `json:"modes"`
}

// handleRunAnalysis runs a batch bound to the request. Disconnecting the
// client cancels the batch between episodes.
func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		response.NotFound(w, "analysis is not enabled on this server", s.logger)
		return
	}

	var req AnalysisRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	modes := domain.Modes
	if len(req.Modes) > 0 {
		modes = make([]domain.Mode, 0, len(req.Modes))
		for _, raw := range req.Modes {
			m, err := domain.ParseMode(raw)
			if err != nil {
				response.HandleError(w, err, s.logger)
				return
			}
			modes = append(modes, m)
		}
	}

	report, err := s.runner.Run(r.Context(), req.Episodes, modes)
	if err != nil {
		// A canceled batch still reports the work it stored.
		var coded *errors.Error
		if report != nil && errors.As(err, &coded) {
			err = coded.WithDetails(report)
		}
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, report, s.logger)
}
