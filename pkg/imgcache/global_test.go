package imgcache

import (
	"testing"
	"time"

	"imgcache/pkg/config"
)

func TestGlobal_InitLoadDestroy(t *testing.T) {
	opts := config.Default()
	opts.StorageDir = t.TempDir()

	deliveries := make(chan delivery, 4)
	if err := Init(opts, func(url string, b []byte) {
		deliveries <- delivery{url: url, bytes: b}
	}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Destroy()

	Load("http://127.0.0.1:1/x")
	select {
	case <-deliveries:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for global Load callback")
	}

	if err := Init(opts, func(string, []byte) {}); err == nil {
		t.Fatal("expected second Init to fail while a global cache is open")
	}

	if err := Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := Destroy(); err != nil {
		t.Fatalf("second Destroy should be a no-op, got: %v", err)
	}
}

func TestGlobal_LoadRemoveBeforeInit_AreNoops(t *testing.T) {
	Load("http://example/never-inited")
	Remove("http://example/never-inited")
}
