package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/anchala/pos/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func captureLabels(t *testing.T, cfg middleware.ProfilingConfig, route, target string) (map[string]string, int) {
	t.Helper()
	r := gin.New()
	r.Use(middleware.Profiling(cfg))

	got := map[string]string{}
	r.Handle(http.MethodPost, route, func(c *gin.Context) {
		for _, key := range []string{"route", "method", "controller"} {
			if v, ok := pprof.Label(c.Request.Context(), key); ok {
				got[key] = v
			}
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, target, nil))
	return got, w.Code
}

func TestProfilingMiddleware_LabelsRequests(t *testing.T) {
	labels, code := captureLabels(t, middleware.DefaultProfilingConfig(),
		"/api/v1/carts/:session/lines", "/api/v1/carts/3f0c/lines")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{
		"route":      "/api/v1/carts/:session/lines",
		"method":     "POST",
		"controller": "carts",
	}, labels)
}

func TestProfilingMiddleware_Disabled(t *testing.T) {
	labels, code := captureLabels(t, middleware.ProfilingConfig{Enabled: false},
		"/api/v1/returns", "/api/v1/returns")

	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, labels)
}

func TestProfilingMiddleware_SkipsHealth(t *testing.T) {
	labels, code := captureLabels(t, middleware.DefaultProfilingConfig(),
		"/api/v1/health", "/api/v1/health")

	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, labels)
}

func TestProfilingMiddleware_UnmatchedRouteStillServed(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
