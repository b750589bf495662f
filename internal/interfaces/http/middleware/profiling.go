package middleware

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/anchala/pos/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled bool
	// SkipRoutes are gin route patterns served without labels
	SkipRoutes []string
}

// DefaultProfilingConfig skips the health probes
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:    true,
		SkipRoutes: []string{"/health", "/api/v1/health"},
	}
}

// Profiling runs the rest of the chain under pprof labels so Pyroscope
// samples can be filtered by route, method and controller ("carts",
// "sales", ...). The route label is the gin pattern, never the raw path.
// Unmatched requests carry no labels.
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if !cfg.Enabled || route == "" || slices.Contains(cfg.SkipRoutes, route) {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		},
			telemetry.ProfilingLabelMethod, c.Request.Method,
			telemetry.ProfilingLabelRoute, route,
			telemetry.ProfilingLabelController, controllerOf(route),
		)
	}
}

// controllerOf is the first literal segment after /api/vN.
// "/api/v1/carts/:session/lines" gives "carts".
func controllerOf(route string) string {
	segments := strings.Split(strings.Trim(route, "/"), "/")
	if len(segments) > 0 && segments[0] == "api" {
		segments = segments[1:]
	}
	if len(segments) > 0 && isVersion(segments[0]) {
		segments = segments[1:]
	}
	for _, s := range segments {
		if s != "" && s[0] != ':' && s[0] != '*' {
			return s
		}
	}
	return ""
}

func isVersion(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	_, err := strconv.ParseUint(segment[1:], 10, 32)
	return err == nil
}
