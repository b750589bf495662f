package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// Profiling label keys attached to request samples
const (
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelController = "controller"
)

// ProfilerConfig holds Pyroscope continuous profiling configuration.
type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string // e.g. http://pyroscope:4040
	ApplicationName string
	Environment     string

	// ProfileTypes defaults to DefaultProfileTypes
	ProfileTypes []pyroscope.ProfileType
}

func (c ProfilerConfig) validate() error {
	var errs []error
	if c.ServerAddress == "" {
		errs = append(errs, errors.New("profiler server address is required"))
	}
	if c.ApplicationName == "" {
		errs = append(errs, errors.New("profiler application name is required"))
	}
	return errors.Join(errs...)
}

func (c ProfilerConfig) types() []pyroscope.ProfileType {
	if len(c.ProfileTypes) > 0 {
		return c.ProfileTypes
	}
	return DefaultProfileTypes
}

func (c ProfilerConfig) tags() map[string]string {
	tags := map[string]string{}
	if host, err := os.Hostname(); err == nil && host != "" {
		tags["hostname"] = host
	}
	if c.Environment != "" {
		tags["env"] = c.Environment
	}
	return tags
}

// DefaultProfileTypes leaves mutex and block profiles off; a till spends
// most of its time idle.
var DefaultProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseObjects,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// Profiler owns the Pyroscope session. A disabled profiler is a no-op.
type Profiler struct {
	cfg    ProfilerConfig
	logger *zap.Logger

	mu      sync.Mutex
	session *pyroscope.Profiler
}

// NewProfiler starts pushing profiles when cfg.Enabled is set.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{cfg: cfg, logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:            cfg.tags(),
		ProfileTypes:    cfg.types(),
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}
	p.session = session

	logger.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Int("profile_types", len(cfg.types())))
	return p, nil
}

// Running reports whether profiles are being pushed
func (p *Profiler) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil
}

// Stop flushes pending profiles. Later calls do nothing.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	session := p.session
	p.session = nil
	p.mu.Unlock()

	if session == nil {
		return nil
	}
	p.logger.Info("Stopping Pyroscope profiler")
	if err := session.Stop(); err != nil {
		return fmt.Errorf("stop pyroscope: %w", err)
	}
	return nil
}

// WithProfilingLabels runs fn under pprof labels given as alternating
// key/value strings. Pairs with an empty key or value are dropped.
func WithProfilingLabels(ctx context.Context, fn func(context.Context), keyValues ...string) {
	kept := make([]string, 0, len(keyValues))
	for i := 0; i+1 < len(keyValues); i += 2 {
		if keyValues[i] != "" && keyValues[i+1] != "" {
			kept = append(kept, keyValues[i], keyValues[i+1])
		}
	}
	if len(kept) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(kept...), fn)
}

// pyroscopeLogger satisfies pyroscope.Logger with zap
type pyroscopeLogger struct {
	*zap.SugaredLogger
}
