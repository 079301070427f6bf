package imgcache

import (
	"testing"

	"imgcache/pkg/config"
	"imgcache/pkg/logger"
	"imgcache/pkg/metrics"
)

func newTestWorker(t *testing.T) (*worker, chan delivery) {
	t.Helper()
	index := newETagIndex()
	blobs := newBlobStore(t.TempDir(), index)
	loadQ := newQueue[string]()
	workQ := newQueue[workItem]()
	log, err := logger.New(config.Default().Log)
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	deliveries := make(chan delivery, 8)
	cb := func(url string, bytes []byte) {
		deliveries <- delivery{url: url, bytes: append([]byte(nil), bytes...)}
	}
	w := newWorker(blobs, index, loadQ, workQ, nil, cb, log, metrics.NewNoop())
	return w, deliveries
}

func TestWorker_Process_FreshBytesWritesAndDelivers(t *testing.T) {
	w, deliveries := newTestWorker(t)
	url := "https://ex/a.png"

	w.process(workItem{url: url, bytes: []byte("B1")})

	d := <-deliveries
	if string(d.bytes) != "B1" {
		t.Fatalf("delivered %q, want B1", d.bytes)
	}
	if !w.blobs.exists(url) {
		t.Fatal("expected blob to be persisted")
	}
}

func TestWorker_Process_DiskHit_Exists(t *testing.T) {
	w, deliveries := newTestWorker(t)
	url := "https://ex/a.png"
	if err := w.blobs.write(url, []byte("cached")); err != nil {
		t.Fatalf("write: %v", err)
	}

	w.process(diskHitItem(url))

	d := <-deliveries
	if string(d.bytes) != "cached" {
		t.Fatalf("delivered %q, want cached", d.bytes)
	}
}

func TestWorker_Process_DiskHit_Missing_DeliversEmpty(t *testing.T) {
	w, deliveries := newTestWorker(t)
	url := "https://ex/gone.png"

	w.process(diskHitItem(url))

	d := <-deliveries
	if len(d.bytes) != 0 {
		t.Fatalf("delivered %q, want empty", d.bytes)
	}
}

func TestWorker_Process_RequestFailed_FallsBackToDisk(t *testing.T) {
	w, deliveries := newTestWorker(t)
	url := "https://ex/a.png"
	if err := w.blobs.write(url, []byte("stale")); err != nil {
		t.Fatalf("write: %v", err)
	}

	w.process(workItem{url: url, requestFailed: true})

	d := <-deliveries
	if string(d.bytes) != "stale" {
		t.Fatalf("delivered %q, want stale", d.bytes)
	}
}

func TestWorker_Process_RequestFailed_NoDisk_DeliversEmpty(t *testing.T) {
	w, deliveries := newTestWorker(t)

	w.process(workItem{url: "https://ex/missing.png", requestFailed: true})

	d := <-deliveries
	if len(d.bytes) != 0 {
		t.Fatalf("delivered %q, want empty", d.bytes)
	}
}

func TestWorker_Process_NotModified_NoOp(t *testing.T) {
	w, deliveries := newTestWorker(t)

	w.process(workItem{url: "https://ex/a.png"})

	select {
	case d := <-deliveries:
		t.Fatalf("unexpected delivery %+v for the 304/no-op case", d)
	default:
	}
}
