package telemetry

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler_Disabled(t *testing.T) {
	cfg := ProfilerConfig{Enabled: false, ServerAddress: "http://localhost:4040", ApplicationName: "anchala-pos"}

	p, err := NewProfiler(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.Running())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestProfilerConfig_Validate(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server address is required")
	assert.Contains(t, err.Error(), "application name is required")

	assert.NoError(t, ProfilerConfig{ServerAddress: "http://localhost:4040", ApplicationName: "anchala-pos"}.validate())
}

func TestProfilerConfig_Types(t *testing.T) {
	assert.Equal(t, DefaultProfileTypes, ProfilerConfig{}.types())

	cpu := []pyroscope.ProfileType{pyroscope.ProfileCPU}
	assert.Equal(t, cpu, ProfilerConfig{ProfileTypes: cpu}.types())
}

func TestProfilerConfig_Tags(t *testing.T) {
	assert.Equal(t, "production", ProfilerConfig{Environment: "production"}.tags()["env"])
	assert.NotContains(t, ProfilerConfig{}.tags(), "env")
}

func TestWithProfilingLabels(t *testing.T) {
	t.Run("attaches labels", func(t *testing.T) {
		var route, method string
		var hasEmpty bool
		WithProfilingLabels(context.Background(), func(ctx context.Context) {
			route, _ = pprof.Label(ctx, ProfilingLabelRoute)
			method, _ = pprof.Label(ctx, ProfilingLabelMethod)
			_, hasEmpty = pprof.Label(ctx, ProfilingLabelController)
		},
			ProfilingLabelRoute, "/api/v1/carts/:session/confirm",
			ProfilingLabelMethod, "POST",
			ProfilingLabelController, "",
		)
		assert.Equal(t, "/api/v1/carts/:session/confirm", route)
		assert.Equal(t, "POST", method)
		assert.False(t, hasEmpty)
	})

	t.Run("runs fn without labels", func(t *testing.T) {
		called := false
		WithProfilingLabels(context.Background(), func(context.Context) { called = true })
		assert.True(t, called)
	})
}
