// Package fsutil holds small filesystem helpers used to locate and
// prepare the cache directory.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// EnsureDir creates path (and any missing parents) if it doesn't already
// exist.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// UserAppDataDir returns (and creates) a per-OS application data
// directory for appName, a default config/cache location for callers
// that don't specify one.
func UserAppDataDir(appName string) (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	if base == "" {
		return "", fmt.Errorf("could not determine a base application data path")
	}

	dir := filepath.Join(base, appName)
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}
