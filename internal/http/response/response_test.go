package response

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/skipper/internal/errors"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestJSON_Success(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]string{"message": "test"}, slog.New(slog.DiscardHandler))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, map[string]any{"message": "test"}, env.Data)
}

func TestError_Helpers(t *testing.T) {
	tests := []struct {
		name  string
		write func(http.ResponseWriter)
		want  int
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "m", nil) }, http.StatusBadRequest},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "m", nil) }, http.StatusNotFound},
		{"too many", func(w http.ResponseWriter) { TooManyRequests(w, "m", nil) }, http.StatusTooManyRequests},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "m", nil) }, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			assert.Equal(t, tt.want, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, "m", env.Error)
		})
	}
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		errorMsg string
	}{
		{"not found", errors.NotFoundf("no segment for %s", "ep1"), http.StatusNotFound, "NOT_FOUND", "no segment for ep1"},
		{"busy wrapped", fmt.Errorf("run: %w", errors.ErrBusy), http.StatusConflict, "BUSY", errors.ErrBusy.Message},
		{"validation", errors.Validation("bad mode"), http.StatusBadRequest, "VALIDATION", "bad mode"},
		{"plain error", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
		{"internal hides message", errors.Internalf("secret path /x"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err, slog.New(slog.DiscardHandler))
			assert.Equal(t, tt.status, rec.Code)
			env := decode(t, rec)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.errorMsg, env.Error)
		})
	}
}
