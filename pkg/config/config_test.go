package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteDefaultThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgcache.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if got.MaxRequests != want.MaxRequests {
		t.Errorf("MaxRequests = %d, want %d", got.MaxRequests, want.MaxRequests)
	}
	if got.CacheMaxSize != want.CacheMaxSize {
		t.Errorf("CacheMaxSize = %d, want %d", got.CacheMaxSize, want.CacheMaxSize)
	}
	if got.CacheMaxTime != want.CacheMaxTime {
		t.Errorf("CacheMaxTime = %v, want %v", got.CacheMaxTime, want.CacheMaxTime)
	}
}

func TestLoad_PartialConfigGetsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgcache.yaml")
	content := "maxRequests: 8\nstorageDir: /tmp/custom\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.MaxRequests != 8 {
		t.Errorf("MaxRequests = %d, want 8", got.MaxRequests)
	}
	if got.StorageDir != "/tmp/custom" {
		t.Errorf("StorageDir = %q, want /tmp/custom", got.StorageDir)
	}
	if got.CacheMaxSize != Default().CacheMaxSize {
		t.Errorf("CacheMaxSize should fall back to default, got %d", got.CacheMaxSize)
	}
	if got.Invalidation.Channel != "imgcache:invalidate" {
		t.Errorf("Invalidation.Channel default not applied: %q", got.Invalidation.Channel)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/imgcache.yaml"); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}
