// Package logger wraps zap with the call surface the rest of this module
// was written against: Info/Warn/Debug/Error taking a message plus
// structured fields, and a Close that flushes and releases the file sink.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"imgcache/pkg/config"
)

// Logger is a small facade over a zap.Logger so call sites don't need to
// know about cores, encoders or sync.
type Logger struct {
	z     *zap.Logger
	debug bool
	file  *os.File
}

// New builds a Logger from a config.LogConfig, tee-ing to stdout and/or a
// file depending on which of those two toggles are set.
func New(cfg config.LogConfig) (*Logger, error) {
	encoder := zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())

	level := zap.InfoLevel
	if cfg.Debug {
		level = zap.DebugLevel
	}

	var cores []zapcore.Core
	if cfg.ToStdout {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	var file *os.File
	if cfg.ToFile {
		path := cfg.FilePath
		if path == "" {
			path = "imgcache.log"
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(f), level))
	}

	if len(cores) == 0 {
		cores = append(cores, zapcore.NewNopCore())
	}

	z := zap.New(zapcore.NewTee(cores...))
	l := &Logger{z: z, debug: cfg.Debug}
	l.file = file
	return l, nil
}

func (l *Logger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Debug only emits when the configured level allows it; zap already
// drops the call cheaply, this just keeps the debug toggle explicit for
// callers reasoning about verbosity.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	if l.debug {
		l.z.Debug(msg, fields...)
	}
}

// With returns a child logger carrying the given structured fields on
// every subsequent call, e.g. logger.With(zap.String("url", u)).
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...), debug: l.debug, file: l.file}
}

// Close flushes buffered log entries and closes the file sink, if any.
func (l *Logger) Close() error {
	_ = l.z.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
