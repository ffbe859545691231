package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/database/dbtest"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func openTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	store, err := database.Open(dbtest.Config(t))
	require.NoError(t, err)
	return store
}

func getHealth(t *testing.T, router *gin.Engine) (int, HealthResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthController_Status(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("returns healthy when database is connected", func(t *testing.T) {
		store := openTestDatabase(t)
		defer store.Close()

		router := NewRouter(RouterConfig{Version: "1.0.0", Checks: map[string]Pinger{"database": store}, Quiet: true})
		code, response := getHealth(t, router)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Contains(t, response.Time, "T")
	})

	t.Run("returns unhealthy when database connection is closed", func(t *testing.T) {
		store := openTestDatabase(t)
		require.NoError(t, store.Close())

		router := NewRouter(RouterConfig{Version: "1.0.0", Checks: map[string]Pinger{"database": store}, Quiet: true})
		code, response := getHealth(t, router)

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})

	t.Run("reports unconfigured checks without failing", func(t *testing.T) {
		router := NewRouter(RouterConfig{Checks: map[string]Pinger{"tasks": nil}, Quiet: true})
		code, response := getHealth(t, router)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "not configured", response.Checks["tasks"])
	})

	t.Run("one failing check makes the service unhealthy", func(t *testing.T) {
		checks := map[string]Pinger{
			"database": pingerFunc(func(context.Context) error { return nil }),
			"tasks":    pingerFunc(func(context.Context) error { return errors.New("locked") }),
		}
		code, response := getHealth(t, NewRouter(RouterConfig{Checks: checks, Quiet: true}))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Equal(t, "error: locked", response.Checks["tasks"])
	})
}

func TestHealthResponse(t *testing.T) {
	t.Run("omits empty version", func(t *testing.T) {
		response := HealthResponse{
			Status: "healthy",
			Time:   "2024-01-01T12:00:00Z",
			Checks: map[string]string{},
		}

		jsonBytes, err := json.Marshal(response)
		require.NoError(t, err)

		assert.NotContains(t, string(jsonBytes), "version")
	})
}
