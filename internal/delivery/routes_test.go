package delivery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/infra"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHealthAndReady(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("connection refused") }

	stager, err := NewStager(t.TempDir(), testMaxBytes)
	require.NoError(t, err)
	h := NewMediaHandler(&stubService{}, stager, testMaxBytes, testLogger())

	r := NewRouter(RouterDeps{Media: h, Log: testLogger(), Checks: map[string]Check{"postgres": healthy}})
	rec, _ := do(t, r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, env := do(t, r, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	r = NewRouter(RouterDeps{Media: h, Log: testLogger(), Checks: map[string]Check{"postgres": healthy, "redis": broken}})
	rec, env = do(t, r, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, string(env.Payload), "redis")
	assert.NotContains(t, string(env.Payload), "postgres")
}

func TestUploadsServedForLocalBackend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image-1-a.png"), []byte("png"), 0o644))

	stager, err := NewStager(t.TempDir(), testMaxBytes)
	require.NoError(t, err)
	h := NewMediaHandler(&stubService{}, stager, testMaxBytes, testLogger())
	r := NewRouter(RouterDeps{Media: h, Log: testLogger(), UploadDir: dir})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/image-1-a.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
}

func TestMetricsUseRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := infra.NewMetrics(reg)

	stager, err := NewStager(t.TempDir(), testMaxBytes)
	require.NoError(t, err)
	h := NewMediaHandler(&stubService{}, stager, testMaxBytes, testLogger())
	r := NewRouter(RouterDeps{Media: h, Log: testLogger(), Metrics: m, Gatherer: reg})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/media/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/api/media/{id}", "200")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestHealthAndMetricsAreCountedButNotLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	zl := logger.NewZapLogger(zap.New(core).Sugar())
	reg := prometheus.NewRegistry()
	m := infra.NewMetrics(reg)

	stager, err := NewStager(t.TempDir(), testMaxBytes)
	require.NoError(t, err)
	h := NewMediaHandler(&stubService{}, stager, testMaxBytes, zl)
	r := NewRouter(RouterDeps{
		Media:    h,
		Log:      zl,
		Metrics:  m,
		Gatherer: reg,
		Checks:   map[string]Check{"postgres": func(context.Context) error { return nil }},
	})

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.Zero(t, logs.FilterMessage("http request").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/health", "200")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/media/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/api/media/", entries[0].ContextMap()["route"])
}
