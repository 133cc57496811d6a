package api

import (
	"context"
	"net/http"
	"time"

	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/http/response"
)

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status   string `json:"status"`
	Store    string `json:"store"`
	Sessions int    `json:"sessions"`
	Clients  int    `json:"clients"`
	AutoSkip bool   `json:"auto_skip"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "healthy",
		Store:    "healthy",
		Sessions: len(s.registry.Sessions()),
		Clients:  s.events.ClientCount(),
	}
	if s.skip != nil {
		resp.AutoSkip = s.skip.Enabled()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, _, err := s.segments.Get(ctx, "health-probe", domain.ModeCredits); err != nil {
		s.logger.Warn("store health check failed", "error", err)
		resp.Status, resp.Store = "unhealthy", "unhealthy"
		response.JSON(w, http.StatusServiceUnavailable, resp, s.logger)
		return
	}
	response.Success(w, resp, s.logger)
}
