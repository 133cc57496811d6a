package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/skipper/internal/analyzer"
	"github.com/listenupapp/skipper/internal/domain"
	"github.com/listenupapp/skipper/internal/errors"
	"github.com/listenupapp/skipper/internal/http/response"
	"github.com/listenupapp/skipper/internal/playback"
	"github.com/listenupapp/skipper/internal/ratelimit"
	"github.com/listenupapp/skipper/internal/sse"
	"github.com/listenupapp/skipper/internal/store"
)

type fakeRunner struct {
	queue   []*domain.QueuedEpisode
	modes   []domain.Mode
	err     error
	partial bool
}

func (f *fakeRunner) Run(_ context.Context, queue []*domain.QueuedEpisode, modes []domain.Mode) (*analyzer.BatchReport, error) {
	f.queue, f.modes = queue, modes
	report := &analyzer.BatchReport{ID: "run-1", Seasons: 1, Episodes: len(queue)}
	if f.err != nil {
		if f.partial {
			report.Canceled = true
			return report, f.err
		}
		return nil, f.err
	}
	return report, nil
}

type testServer struct {
	*Server
	registry *playback.Registry
	segments *store.Store
	runner   *fakeRunner
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	segments, err := store.New(t.TempDir(), logger, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = segments.Close() })

	events := sse.NewManager(logger)
	t.Cleanup(func() { _ = events.Shutdown(context.Background()) })

	limiter := ratelimit.New(1000, 1000, 0)
	t.Cleanup(limiter.Stop)

	registry := playback.NewRegistry(logger)
	runner := &fakeRunner{}
	srv := NewServer(Deps{
		Registry: registry,
		Segments: segments,
		Events:   events,
		Runner:   runner,
		Limiter:  limiter,
		Logger:   logger,
	})
	return &testServer{Server: srv, registry: registry, segments: segments, runner: runner}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	var env response.Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	rec, env := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	data := env.Data.(map[string]any)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "healthy", data["store"])
}

func TestPlaybackLifecycle(t *testing.T) {
	ts := setupTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/api/v1/playback/start", PlaybackStartRequest{
		DeviceID: "tv", Client: "Kodi", ItemID: "ep1", SeasonID: "s1", EpisodeNumber: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	session := env.Data.(map[string]any)
	assert.NotEmpty(t, session["session_id"])

	rec, env = ts.do(t, http.MethodPost, "/api/v1/playback/progress", PlaybackProgressRequest{
		DeviceID: "tv", PositionSeconds: 1420,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1420.0, env.Data.(map[string]any)["position_seconds"])

	live, ok := ts.registry.Session("tv")
	require.True(t, ok)
	assert.Equal(t, 1420.0, live.PositionSeconds)

	rec, env = ts.do(t, http.MethodGet, "/api/v1/playback/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.Data, 1)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/playback/stop", PlaybackStopRequest{DeviceID: "tv"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok = ts.registry.Session("tv")
	assert.False(t, ok)
}

func TestPlaybackValidation(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   errors.Code
	}{
		{"start without item", "/api/v1/playback/start", PlaybackStartRequest{DeviceID: "tv"}, http.StatusBadRequest, errors.CodeValidation},
		{"negative position", "/api/v1/playback/progress", PlaybackProgressRequest{DeviceID: "tv", PositionSeconds: -1}, http.StatusBadRequest, errors.CodeValidation},
		{"progress without start", "/api/v1/playback/progress", PlaybackProgressRequest{DeviceID: "ghost", PositionSeconds: 5}, http.StatusNotFound, errors.CodeNotFound},
		{"empty body", "/api/v1/playback/stop", nil, http.StatusBadRequest, errors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, string(tt.code), env.Code)
		})
	}

	rec, env := ts.do(t, http.MethodPost, "/api/v1/playback/start", PlaybackStartRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	details := env.Details.(map[string]any)
	assert.Contains(t, details, "device_id")
	assert.Contains(t, details, "item_id")
}

func TestPlaybackRateLimit(t *testing.T) {
	ts := setupTestServer(t)
	ts.limiter = ratelimit.New(0.001, 2, 0)
	defer ts.limiter.Stop()

	start := PlaybackStartRequest{DeviceID: "tv", ItemID: "ep1"}
	rec, _ := ts.do(t, http.MethodPost, "/api/v1/playback/start", start)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = ts.do(t, http.MethodPost, "/api/v1/playback/progress", PlaybackProgressRequest{DeviceID: "tv", PositionSeconds: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = ts.do(t, http.MethodPost, "/api/v1/playback/progress", PlaybackProgressRequest{DeviceID: "tv", PositionSeconds: 2})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/playback/start", PlaybackStartRequest{DeviceID: "phone", ItemID: "ep1"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSegments(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	require.NoError(t, ts.segments.Upsert(ctx, "ep1", domain.ModeCredits, domain.NewSegment("ep1", 1410, 1500)))
	require.NoError(t, ts.segments.Upsert(ctx, "ep1", domain.ModeIntroduction, domain.NewSegment("ep1", 30, 90)))

	rec, env := ts.do(t, http.MethodGet, "/api/v1/segments/ep1/credits", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	seg := env.Data.(map[string]any)
	assert.Equal(t, 1410.0, seg["start"])
	assert.Equal(t, true, seg["valid"])

	rec, _ = ts.do(t, http.MethodGet, "/api/v1/segments/ep2/credits", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = ts.do(t, http.MethodGet, "/api/v1/segments/ep1/recap", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(errors.CodeValidation), env.Code)

	rec, env = ts.do(t, http.MethodGet, "/api/v1/segments?mode=introduction", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := env.Data.([]any)
	require.Len(t, list, 1)
	assert.Equal(t, 30.0, list[0].(map[string]any)["start"])
}

func TestRunAnalysis(t *testing.T) {
	ts := setupTestServer(t)
	body := map[string]any{
		"episodes": []map[string]any{
			{"episode_id": "ep1", "season_id": "s1", "path": "/media/ep1.mkv", "duration": 1500},
		},
		"modes": []string{"credits"},
	}

	rec, env := ts.do(t, http.MethodPost, "/api/v1/analysis", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "run-1", env.Data.(map[string]any)["id"])
	require.Len(t, ts.runner.queue, 1)
	assert.Equal(t, 1500.0, ts.runner.queue[0].Duration)
	assert.Equal(t, []domain.Mode{domain.ModeCredits}, ts.runner.modes)

	ts.runner.err = fmt.Errorf("run: %w", errors.ErrBusy)
	rec, env = ts.do(t, http.MethodPost, "/api/v1/analysis", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(errors.CodeBusy), env.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/analysis", map[string]any{"episodes": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/analysis", map[string]any{
		"episodes": body["episodes"], "modes": []string{"recap"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunAnalysis_CanceledKeepsReport(t *testing.T) {
	ts := setupTestServer(t)
	ts.runner.err = errors.ErrCanceled.WithCause(context.Canceled)
	ts.runner.partial = true

	rec, env := ts.do(t, http.MethodPost, "/api/v1/analysis", map[string]any{
		"episodes": []map[string]any{
			{"episode_id": "ep1", "season_id": "s1", "path": "/media/ep1.mkv", "duration": 1500},
		},
	})
	assert.Equal(t, 499, rec.Code)
	assert.Equal(t, string(errors.CodeCanceled), env.Code)
	report, ok := env.Details.(map[string]any)
	require.True(t, ok, "report is attached as details")
	assert.Equal(t, "run-1", report["id"])
	assert.Equal(t, true, report["canceled"])
}
