package imgcache

import (
	"testing"
	"time"

	"imgcache/internal/originfixture"
	"imgcache/pkg/config"
	"imgcache/pkg/logger"
	"imgcache/pkg/metrics"
)

func TestParseETag(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"quoted", `"v1"`, "v1"},
		{"weak", `W/"v1"`, "v1"},
		{"unquoted", "v1", "v1"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseETag([]byte(tc.raw)); got != tc.want {
				t.Errorf("parseETag(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func newTestFetcher(t *testing.T, opts config.Options) (*fetcher, *queue[string], *queue[workItem]) {
	t.Helper()
	index := newETagIndex()
	blobs := newBlobStore(t.TempDir(), index)
	loadQ := newQueue[string]()
	workQ := newQueue[workItem]()
	log, err := logger.New(opts.Log)
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	f := newFetcher(opts, index, blobs, loadQ, workQ, log, metrics.NewNoop())
	return f, loadQ, workQ
}

func TestFetcher_Transfer_FollowsRedirects(t *testing.T) {
	origin, err := originfixture.New()
	if err != nil {
		t.Fatalf("originfixture.New: %v", err)
	}
	defer origin.Close()
	origin.SetContent("target.png", "v1", []byte("B1"))

	opts := config.Default()
	opts.RequestTimeout = 2 * time.Second
	f, _, workQ := newTestFetcher(t, opts)

	f.transfer(origin.RedirectURL(origin.EtagURL("target.png")))

	item, ok := workQ.tryPop()
	if !ok {
		t.Fatal("expected a work item after following the redirect")
	}
	if item.requestFailed || string(item.bytes) != "B1" {
		t.Fatalf("item = %+v, want bytes=B1 requestFailed=false", item)
	}
}

func TestFetcher_Transfer_TransportErrorIsFailure(t *testing.T) {
	// Port 1 refuses connections outright on a typical test host, giving
	// us a transport-level failure without needing a fixture handler.
	opts := config.Default()
	opts.RequestTimeout = time.Second
	f, _, workQ := newTestFetcher(t, opts)

	f.transfer("http://127.0.0.1:1/missing")

	item, ok := workQ.tryPop()
	if !ok {
		t.Fatal("expected a work item after a failed transfer")
	}
	if !item.requestFailed || item.bytes != nil {
		t.Fatalf("item = %+v, want requestFailed=true bytes=nil", item)
	}
}

func TestFetcher_Run_AdmissionRespectsSemaphore(t *testing.T) {
	opts := config.Default()
	opts.MaxRequests = 2
	f, loadQ, workQ := newTestFetcher(t, opts)

	go f.run()
	defer f.shutdown()

	for i := 0; i < 3; i++ {
		loadQ.push("http://127.0.0.1:1/x")
	}

	deadline := time.Now().Add(5 * time.Second)
	seen := 0
	for seen < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %d of 3 work items", seen)
		}
		if _, ok := workQ.tryPop(); ok {
			seen++
			continue
		}
		time.Sleep(10 * time.Millisecond)
	}
}
