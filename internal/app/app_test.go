package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"timeTracker/internal/app"
	"timeTracker/internal/config"
	"timeTracker/internal/events"
	"timeTracker/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			RateLimit:       100,
			ShutdownTimeout: time.Second,
		},
		Database: config.DatabaseConfig{
			Driver: driver,
			Path:   filepath.Join(t.TempDir(), "tracker.db"),
		},
		List: config.ListConfig{
			RetentionDays: 7,
			ShowQueued:    true,
			ShowRanked:    true,
			ShowClosed:    true,
		},
		Worker: config.WorkerConfig{RefreshInterval: time.Minute},
	}
}

// TestApp_Routes тестирует собранное приложение через его роутер
func TestApp_Routes(t *testing.T) {
	for _, driver := range []string{config.DriverInMemory, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			a, err := app.New(testConfig(t, driver), "").Init(context.Background())
			require.NoError(t, err)
			defer a.Shutdown()

			w := httptest.NewRecorder()
			a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

			req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"description": "Write report", "start_now": true}`))
			req.Header.Set("Content-Type", "application/json")
			w = httptest.NewRecorder()
			a.Handler().ServeHTTP(w, req)
			assert.Equal(t, http.StatusCreated, w.Code)

			w = httptest.NewRecorder()
			a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), "Write report")
		})
	}
}

// TestApp_RunStopsOnCancel тестирует graceful shutdown
func TestApp_RunStopsOnCancel(t *testing.T) {
	a, err := app.New(testConfig(t, config.DriverInMemory), "").Init(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("приложение не остановилось")
	}
}

// TestOpenStore_UnknownDriver тестирует отказ на неизвестном драйвере
func TestOpenStore_UnknownDriver(t *testing.T) {
	_, _, err := app.OpenStore(context.Background(), config.DatabaseConfig{Driver: "mongo"})
	assert.Error(t, err)
}

// TestNewService_SavesSettings тестирует сохранение настроек списка в конфиг
func TestNewService_SavesSettings(t *testing.T) {
	cfg := testConfig(t, config.DriverInMemory)
	path := filepath.Join(t.TempDir(), "config.yml")

	store, closeStore, err := app.OpenStore(context.Background(), cfg.Database)
	require.NoError(t, err)
	defer closeStore()

	svc := app.NewService(cfg, path, store, events.NewBus())

	hide := false
	days := 3
	_, err = svc.SetVisibility(context.Background(), service.VisibilityParams{ShowClosed: &hide, RetentionDays: &days})
	require.NoError(t, err)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, loaded.List.ShowClosed)
	assert.True(t, loaded.List.ShowQueued)
	assert.Equal(t, 3, loaded.List.RetentionDays)
}
