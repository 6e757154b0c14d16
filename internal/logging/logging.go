// Package logging builds the zap loggers used by the terminal client and
// the backend.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where and how log entries are written.
type Options struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string

	// Format is "json" or "console".
	Format string

	// Path is a file to append to. Empty means stderr.
	Path string
}

// New builds a logger from opts. The returned cleanup func flushes and
// closes the sink.
func New(opts Options) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, nil, fmt.Errorf("parsing log level %q: %w", opts.Level, err)
		}
	}

	sink := zapcore.Lock(os.Stderr)
	closeSink := func() {}
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		ws, closeFn, err := zap.Open(opts.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", opts.Path, err)
		}
		sink = ws
		closeSink = closeFn
	}

	core := zapcore.NewCore(newEncoder(opts.Format), sink, level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	cleanup := func() {
		_ = logger.Sync()
		closeSink()
	}
	return logger, cleanup, nil
}

// newEncoder creates JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
