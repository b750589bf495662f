package logger

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	// Output is a comma separated list of sinks: stdout, stderr or file
	// paths. "stdout,/var/log/pos.log" writes to both.
	Output string
	// Service and Version are attached to every entry when set
	Service string
	Version string
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// New builds the till's zap logger. Console output gets coloured levels;
// files always receive JSON so they can be shipped without parsing.
func New(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &Config{Level: "info", Format: "console", Output: "stdout"}
	}
	level := levelOf(cfg.Level)

	var cores []zapcore.Core
	for _, sink := range splitSinks(cfg.Output) {
		ws, isFile, err := openSink(sink)
		if err != nil {
			return nil, err
		}
		format := cfg.Format
		if isFile {
			format = "json"
		}
		cores = append(cores, zapcore.NewCore(encoderFor(format), ws, level))
	}

	var fields []zap.Field
	if cfg.Service != "" {
		fields = append(fields, zap.String("service", cfg.Service))
	}
	if cfg.Version != "" {
		fields = append(fields, zap.String("version", cfg.Version))
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(fields...),
	), nil
}

func levelOf(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderFor(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func splitSinks(output string) []string {
	var sinks []string
	for _, s := range strings.Split(output, ",") {
		if s = strings.TrimSpace(s); s != "" {
			sinks = append(sinks, s)
		}
	}
	if len(sinks) == 0 {
		sinks = []string{"stdout"}
	}
	return sinks
}

func openSink(sink string) (ws zapcore.WriteSyncer, isFile bool, err error) {
	switch strings.ToLower(sink) {
	case "stdout":
		return zapcore.Lock(os.Stdout), false, nil
	case "stderr":
		return zapcore.Lock(os.Stderr), false, nil
	}
	f, err := os.OpenFile(sink, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open log file %s: %w", sink, err)
	}
	return zapcore.AddSync(f), true, nil
}

// Sync flushes buffered entries. Syncing a terminal reports EINVAL or
// ENOTTY on some platforms; those are dropped.
func Sync(logger *zap.Logger) error {
	if err := logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		return err
	}
	return nil
}
