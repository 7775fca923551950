package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"saffron/config"
	"saffron/ratelim"
	"saffron/rdx"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryApp(t *testing.T) (*app, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := config.FromEnv()
	cfg.StoreDriver = "memory"
	cfg.StorageDriver = "local"
	cfg.RedisURL = mr.Addr()
	cfg.UploadDir = t.TempDir()

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a, mr
}

func TestMemoryAppHealth(t *testing.T) {
	a, _ := memoryApp(t)
	router := a.router(ratelim.NewRateLimiter(100, 100))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "memory", body["store"])
	assert.Equal(t, "ok", body["cache"])
	assert.Equal(t, "ok", body["status"])
}

func TestWarmStepsFillCache(t *testing.T) {
	a, mr := memoryApp(t)
	ctx := context.Background()

	for _, step := range a.warmSteps() {
		require.NoError(t, step(ctx))
	}
	assert.True(t, mr.Exists(rdx.GenerateKey(rdx.NSCategories, "all", nil)))
	assert.True(t, mr.Exists(rdx.GenerateKey(rdx.NSTags, "all", nil)))
}

func TestSchedule(t *testing.T) {
	a, _ := memoryApp(t)
	s, err := a.schedule()
	require.NoError(t, err)
	s.Start()
	require.NoError(t, s.Stop(context.Background()))

	a.cfg.TagRecountSchedule = "every tuesday"
	_, err = a.schedule()
	assert.Error(t, err)
}
