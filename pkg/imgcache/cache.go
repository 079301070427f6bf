package imgcache

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"imgcache/pkg/config"
	"imgcache/pkg/fsutil"
	"imgcache/pkg/invalidation"
	"imgcache/pkg/logger"
	"imgcache/pkg/metrics"
)

// Cache is a single owning handle over one cache directory: the index,
// the blob store, the two queues, and the fetcher/worker pair that drive
// them. The reference design keeps this state process-global; Cache
// wraps it so a process can hold more than one independent cache (or
// none at all without paying for global init).
type Cache struct {
	opts config.Options
	dir  string

	index *etagIndex
	blobs *blobStore
	loadQ *queue[string]
	workQ *queue[workItem]

	worker  *worker
	fetcher *fetcher

	log          *logger.Logger
	metrics      *metrics.Collectors
	metricsSrv   *metrics.Server
	notifier     invalidation.Notifier
	notifierStop chan struct{}
}

// Open is the equivalent of the reference design's init(cache_dir,
// callback): it records the cache directory, starts the worker (which in
// turn starts the fetcher), and returns a handle. Call exactly once per
// cache directory; Close releases everything Open acquired.
func Open(opts config.Options, callback Callback) (*Cache, error) {
	if opts.StorageDir == "" {
		opts = config.Default()
	}
	if err := fsutil.EnsureDir(opts.StorageDir); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	log, err := logger.New(opts.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if pid, err := fsutil.ReadLockPID(opts.StorageDir); err == nil {
		log.Warn("overwriting stale lock file", zap.Int("pid", pid))
	}
	if err := fsutil.WriteLock(opts.StorageDir); err != nil {
		log.Warn("write lock file failed", zap.Error(err))
	}

	mx := metrics.NewNoop()
	var msrv *metrics.Server
	if opts.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		mx = metrics.New(reg)
		msrv = metrics.NewServer(opts.Metrics.Addr, reg, log)
		if err := msrv.Start(); err != nil {
			log.Warn("metrics server failed to start", zap.Error(err))
			msrv = nil
		}
	}

	notifier := invalidation.Notifier(invalidation.Noop{})
	if opts.Invalidation.Enabled {
		notifier = invalidation.NewRedis(opts.Invalidation.Redis, opts.Invalidation.Channel, log)
	}

	index := newETagIndex()
	if err := index.loadFromDisk(opts.StorageDir); err != nil {
		log.Warn("load etag index failed", zap.Error(err))
	}
	blobs := newBlobStore(opts.StorageDir, index)
	removed, err := blobs.scanAndEvict(now(), opts.CacheMaxSize, opts.CacheMaxTime)
	if err != nil {
		log.Warn("startup eviction failed", zap.Error(err))
	}
	mx.BlobsEvicted.Add(float64(removed))

	loadQ := newQueue[string]()
	workQ := newQueue[workItem]()

	f := newFetcher(opts, index, blobs, loadQ, workQ, log, mx)
	w := newWorker(blobs, index, loadQ, workQ, f, callback, log, mx)

	c := &Cache{
		opts:         opts,
		dir:          opts.StorageDir,
		index:        index,
		blobs:        blobs,
		loadQ:        loadQ,
		workQ:        workQ,
		worker:       w,
		fetcher:      f,
		log:          log,
		metrics:      mx,
		metricsSrv:   msrv,
		notifier:     notifier,
		notifierStop: make(chan struct{}),
	}

	go w.run()
	if opts.Invalidation.Enabled {
		go c.watchInvalidations()
	}

	log.Info("cache opened", zap.String("dir", opts.StorageDir))
	return c, nil
}

// watchInvalidations applies removals published by other processes onto
// this process's own blob store and index, the "agree without sharing a
// directory" side of distributed invalidation.
func (c *Cache) watchInvalidations() {
	for url := range c.notifier.Subscribe(c.notifierStop) {
		c.removeLocal(url)
	}
}

// Load implements the reference design's load(url): a disk-hit fast path
// delivery (if cached) plus an always-issued revalidation, producing
// stale-while-revalidate semantics. It never blocks on network I/O.
func (c *Cache) Load(url string) {
	if c.blobs.exists(url) {
		c.workQ.push(diskHitItem(url))
	}
	c.loadQ.push(url)
}

// Remove implements the reference design's remove(url): delete the blob
// if present, clear its ETag, and flush the index, then announce the
// removal to any other processes sharing invalidation.
func (c *Cache) Remove(url string) {
	c.removeLocal(url)
	if err := c.notifier.Publish(url); err != nil {
		c.log.Warn("publish invalidation failed", zap.String("url", url), zap.Error(err))
	}
}

func (c *Cache) removeLocal(url string) {
	if c.blobs.exists(url) {
		c.blobs.remove(url)
		c.index.clearEtag(url)
		if err := c.index.flushToDisk(c.dir); err != nil {
			c.log.Warn("flush index after remove failed", zap.String("url", url), zap.Error(err))
		}
		c.metrics.BlobsEvicted.Inc()
	}
}

// Close implements the reference design's destroy(): stop both
// long-lived tasks (worker first, then fetcher, per the protocol),
// clear in-memory state, and release the lock file and any optional
// services. Errors from each independent step are joined rather than
// discarding all but the last.
func (c *Cache) Close() error {
	var errs error

	c.worker.shutdown()

	c.index.clear()
	c.workQ.clear()
	c.loadQ.clear()

	if c.notifierStop != nil {
		close(c.notifierStop)
	}
	if err := c.notifier.Close(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("close notifier: %w", err))
	}

	if c.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := c.metricsSrv.Shutdown(ctx)
		cancel()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shutdown metrics server: %w", err))
		}
	}

	if err := fsutil.RemoveLock(c.dir); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("remove lock file: %w", err))
	}

	if err := c.log.Close(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("close logger: %w", err))
	}

	return errs
}

func now() time.Time { return time.Now() }
