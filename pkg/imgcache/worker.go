package imgcache

import (
	"go.uber.org/zap"

	"imgcache/pkg/logger"
	"imgcache/pkg/metrics"
)

// worker is the single long-lived task that owns all disk I/O and every
// application callback. Startup order (load index, run eviction, then
// start the fetcher) is the caller's responsibility (Cache.Open), since
// loading the index requires the cache directory the worker itself has
// no other reason to know about; the worker's own run loop assumes that
// ordering has already happened by the time it's started.
type worker struct {
	blobs    *blobStore
	index    *etagIndex
	loadQ    *queue[string]
	workQ    *queue[workItem]
	fetcher  *fetcher
	callback Callback
	log      *logger.Logger
	metrics  *metrics.Collectors

	done chan struct{}
}

func newWorker(blobs *blobStore, index *etagIndex, loadQ *queue[string], workQ *queue[workItem], f *fetcher, cb Callback, log *logger.Logger, mx *metrics.Collectors) *worker {
	return &worker{
		blobs:    blobs,
		index:    index,
		loadQ:    loadQ,
		workQ:    workQ,
		fetcher:  f,
		callback: cb,
		log:      log.With(zap.String("component", "worker")),
		metrics:  mx,
		done:     make(chan struct{}),
	}
}

// run starts the fetcher, then drains the work queue in batches,
// delivering exactly one callback per item. It returns (closing done)
// once the work queue is closed and drained.
func (w *worker) run() {
	defer close(w.done)
	go w.fetcher.run()

	for {
		items := w.workQ.drainAll()
		if items == nil {
			return
		}
		for _, item := range items {
			w.process(item)
		}
	}
}

func (w *worker) process(item workItem) {
	switch {
	case item.bytes != nil:
		if err := w.blobs.write(item.url, item.bytes); err != nil {
			w.log.Warn("persist blob failed", zap.String("url", item.url), zap.Error(err))
		}
		w.deliver(item.url, item.bytes)

	case item.diskHit:
		data, ok := w.blobs.read(item.url)
		if !ok {
			w.metrics.CacheMisses.Inc()
			w.deliver(item.url, nil)
			return
		}
		w.metrics.CacheHits.Inc()
		w.deliver(item.url, data)

	case item.requestFailed:
		data, ok := w.blobs.read(item.url)
		if !ok {
			w.deliver(item.url, nil)
			return
		}
		w.deliver(item.url, data)

	default:
		// bytes=nil, requestFailed=false, diskHit=false: the 304 case.
		// The disk copy is already current and was already delivered by
		// the fast path at Load time; nothing to do here.
	}
}

func (w *worker) deliver(url string, bytes []byte) {
	if w.callback == nil {
		return
	}
	w.callback(url, bytes)
}

// shutdown signals both the worker and the fetcher to stop and joins
// them in the order the protocol requires: closing the load queue first
// unblocks the fetcher's Idle wait, closing the work queue lets the
// worker's drain loop finish whatever was already queued, then the
// worker is joined before the fetcher (the worker owns the fetcher's
// lifetime: it started it, so it waits for it).
func (w *worker) shutdown() {
	w.loadQ.close()
	w.workQ.close()
	<-w.done
	w.fetcher.shutdown()
}
