package entrypoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earshelf/earshelf/internal/config"
	"github.com/earshelf/earshelf/internal/database/dbtest"
	"github.com/earshelf/earshelf/internal/database/progress"
	"github.com/earshelf/earshelf/internal/database/sessions"
)

func testConfig(t *testing.T, tasksEnabled bool) *config.Config {
	gin.SetMode(gin.TestMode)
	return &config.Config{
		Database: dbtest.Config(t),
		Rewind:   config.Rewind{Window: 10 * time.Second, DefaultThreshold: 300 * time.Second},
		Sessions: config.Sessions{AbandonAfter: time.Hour, SweepSchedule: "*/30 * * * *"},
		Audit:    config.Audit{RetentionDays: 30, CleanupSchedule: "0 3 * * *"},
		Tasks: config.Tasks{
			Enabled: tasksEnabled,
			DBPath:  filepath.Join(t.TempDir(), "tasks.db"),
			Workers: 1,
		},
	}
}

func TestBuild(t *testing.T) {
	t.Run("with task queue", func(t *testing.T) {
		app, err := Build(testConfig(t, true), "test")
		require.NoError(t, err)
		defer app.Close()

		require.NotNil(t, app.Tasks)
		require.NotNil(t, app.Scheduler)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		app.Router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"tasks": "ok"`)
		assert.False(t, app.Scheduler.IsRunning())
	})

	t.Run("without task queue", func(t *testing.T) {
		app, err := Build(testConfig(t, false), "test")
		require.NoError(t, err)
		defer app.Close()

		assert.Nil(t, app.Tasks)
		assert.Nil(t, app.Scheduler)
	})
}

func TestBuild_PlaybackRoundTrip(t *testing.T) {
	app, err := Build(testConfig(t, false), "test")
	require.NoError(t, err)
	defer app.Close()

	f := dbtest.Seed(t, app.Database.DB, "alice")
	ctx := context.Background()

	playback, err := app.Playback.StartSession(ctx, sessions.OpenParams{UserID: f.User.ID, BookID: f.Book.ID, Device: "phone"})
	require.NoError(t, err)

	_, err = app.Playback.ReportProgress(ctx, progress.Report{UserID: f.User.ID, BookID: f.Book.ID, PositionMs: 5_000, SessionID: playback.SessionID})
	require.NoError(t, err)

	point, err := app.Playback.Resume(ctx, f.User.ID, f.Book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), point.PositionMs)

	seen, err := app.Playback.Devices(ctx, f.User.ID)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "phone", seen[0].Device)
}
