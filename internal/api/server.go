// Package api exposes the playback report endpoints, the client event
// stream and read access to detected segments over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/listenupapp/skipper/internal/analyzer"
	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/playback"
	"github.com/listenupapp/skipper/internal/ratelimit"
	"github.com/listenupapp/skipper/internal/sse"
	"github.com/listenupapp/skipper/internal/store"
	"github.com/listenupapp/skipper/internal/validation"
)

// BatchRunner runs analysis batches on demand.
type BatchRunner interface {
	Run(ctx context.Context, queue []*domain.QueuedEpisode, modes []domain.Mode) (*analyzer.BatchReport, error)
}

// SkipStatus reports whether auto skip is currently polling.
type SkipStatus interface {
	Enabled() bool
}

// Deps are the collaborators of a Server. Runner and Skip are optional.
type Deps struct {
	Registry  *playback.Registry
	Segments  store.SegmentStore
	Events    *sse.Manager
	Runner    BatchRunner
	Skip      SkipStatus
	Limiter   *ratelimit.KeyedRateLimiter
	Validator *validation.Validator
	Logger    *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	registry   *playback.Registry
	segments   store.SegmentStore
	events     *sse.Manager
	sseHandler *sse.Handler
	runner     BatchRunner
	skip       SkipStatus
	limiter    *ratelimit.KeyedRateLimiter
	validator  *validation.Validator
	router     *chi.Mux
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(deps Deps) *Server {
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	s := &Server{
		registry:   deps.Registry,
		segments:   deps.Segments,
		events:     deps.Events,
		sseHandler: sse.NewHandler(deps.Events, deps.Logger),
		runner:     deps.Runner,
		skip:       deps.Skip,
		limiter:    deps.Limiter,
		validator:  deps.Validator,
		router:     chi.NewRouter(),
		logger:     deps.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/playback", func(r chi.Router) {
			r.Post("/start", s.handlePlaybackStart)
			r.Post("/progress", s.handlePlaybackProgress)
			r.Post("/stop", s.handlePlaybackStop)
			r.Get("/sessions", s.handleListSessions)
		})

		r.Get("/events", s.sseHandler.ServeHTTP)

		r.Route("/segments", func(r chi.Router) {
			r.Get("/", s.handleListSegments)
			r.Get("/{episodeID}/{mode}", s.handleGetSegment)
		})

		r.Post("/analysis", s.handleRunAnalysis)
	})
}
