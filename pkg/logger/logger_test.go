package logger

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"imgcache/pkg/config"
)

func TestNew_WritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log", "imgcache.log")

	l, err := New(config.LogConfig{ToFile: true, FilePath: path, Debug: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hello", zap.String("url", "https://ex/a.png"))
	l.Debug("debug line")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log output, got empty file")
	}
}

func TestNew_NoSinksIsSilentNotPanicking(t *testing.T) {
	l, err := New(config.LogConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("should not panic")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestLogger_With(t *testing.T) {
	l, err := New(config.LogConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	child := l.With(zap.String("component", "fetcher"))
	child.Info("scoped message")
}
