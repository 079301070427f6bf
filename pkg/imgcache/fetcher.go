package imgcache

import (
	"crypto/tls"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"imgcache/pkg/config"
	"imgcache/pkg/logger"
	"imgcache/pkg/metrics"
)

// tlsConfigFor builds the client TLS config from Options.InsecureSkipVerify.
// config.Default sets that option to true, so verification is off unless
// the caller turns it back on.
func tlsConfigFor(insecureSkipVerify bool) *tls.Config {
	return &tls.Config{InsecureSkipVerify: insecureSkipVerify}
}

// fetcher is the single long-lived task that multiplexes HTTP transfers
// against origins, attaching conditional-request headers from the ETag
// index and posting completed transfers onto the work queue.
//
// Admission blocks on a semaphore sized to maxRequests, and each admitted
// transfer runs in its own goroutine that writes its result onto the
// work queue once its HTTP round trip finishes.
type fetcher struct {
	client  *fasthttp.Client
	opts    config.Options
	index   *etagIndex
	blobs   *blobStore
	loadQ   *queue[string]
	workQ   *queue[workItem]
	log     *logger.Logger
	metrics *metrics.Collectors

	sem chan struct{}

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func newFetcher(opts config.Options, index *etagIndex, blobs *blobStore, loadQ *queue[string], workQ *queue[workItem], log *logger.Logger, mx *metrics.Collectors) *fetcher {
	client := &fasthttp.Client{
		TLSConfig:                 tlsConfigFor(opts.InsecureSkipVerify),
		MaxResponseBodySize:       int(opts.MaxResponseBytes),
		MaxIdemponentCallAttempts: 1,
	}
	return &fetcher{
		client:  client,
		opts:    opts,
		index:   index,
		blobs:   blobs,
		loadQ:   loadQ,
		workQ:   workQ,
		log:     log.With(zap.String("component", "fetcher")),
		metrics: mx,
		sem:     make(chan struct{}, opts.MaxRequests),
		stop:    make(chan struct{}),
	}
}

// run is the fetcher's main loop: acquire a concurrency slot, wait for
// the next URL, dispatch it. Acquiring the slot before popping the queue
// is the Admission phase; blocking on loadQ.wait() when nothing is
// queued is the Idle phase.
func (f *fetcher) run() {
	for {
		select {
		case f.sem <- struct{}{}:
		case <-f.stop:
			return
		}

		url, ok := f.loadQ.wait()
		if !ok {
			<-f.sem
			return
		}

		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			defer func() { <-f.sem }()
			f.transfer(url)
		}()
	}
}

// transfer performs one conditional HTTP GET for url (Admission's
// request setup plus the Progress/Completion phases) and pushes exactly
// one WorkItem describing the outcome.
func (f *fetcher) transfer(url string) {
	f.metrics.InFlightFetches.Inc()
	defer f.metrics.InFlightFetches.Dec()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	if f.blobs.exists(url) {
		if entry, ok := f.index.lookup(url); ok && entry.ETag != "" {
			req.Header.Set("If-None-Match", `"`+entry.ETag+`"`)
		}
	}

	timeout := f.opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	err := doWithRedirects(f.client, req, resp, timeout, maxRedirects)

	dirty := false
	switch {
	case err != nil:
		f.log.Debug("transfer failed", zap.String("url", url), zap.Error(err))
		f.metrics.FetchFailed.Inc()
		f.workQ.push(workItem{url: url, requestFailed: true})

	case resp.StatusCode() == fasthttp.StatusNotModified:
		f.metrics.FetchNotMod.Inc()
		f.index.ensureExists(url)
		f.workQ.push(workItem{url: url})

	case resp.StatusCode() >= 200 && resp.StatusCode() < 300:
		body := resp.Body()
		etag := parseETag(resp.Header.Peek("ETag"))
		if len(body) == 0 {
			f.index.ensureExists(url)
			f.metrics.FetchNotMod.Inc()
			f.workQ.push(workItem{url: url})
			break
		}
		cp := make([]byte, len(body))
		copy(cp, body)
		if f.index.insertOrUpdate(url, etag) {
			dirty = true
		} else {
			f.index.ensureExists(url)
		}
		f.metrics.FetchSuccess.Inc()
		f.workQ.push(workItem{url: url, bytes: cp})

	default:
		// Conforming behavior, deviating from the original's
		// any-transport-success-is-a-cache-update coarseness: a non-2xx
		// status is a failed fetch, not a cache update.
		f.log.Debug("non-2xx response", zap.String("url", url), zap.Int("status", resp.StatusCode()))
		f.metrics.FetchFailed.Inc()
		f.workQ.push(workItem{url: url, requestFailed: true})
	}

	if dirty {
		if ferr := f.index.flushToDisk(f.blobs.dir); ferr != nil {
			f.log.Warn("flush etag index", zap.Error(ferr))
		}
	}
}

// shutdown stops admitting new transfers and waits for in-flight ones to
// finish.
func (f *fetcher) shutdown() {
	f.stopOnce.Do(func() { close(f.stop) })
	f.wg.Wait()
}

// parseETag scans a raw ETag header value for the double-quoted
// validator, ignoring weak-validator prefixes and malformed values by
// returning the header verbatim if no quotes are found. Ill-formed
// values are tolerated, matching the original's line-scanning parser
// which ignores headers it cannot parse.
func parseETag(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	s := string(raw)
	first := strings.IndexByte(s, '"')
	if first < 0 {
		return strings.TrimSpace(s)
	}
	last := strings.LastIndexByte(s, '"')
	if last <= first {
		return strings.TrimSpace(s)
	}
	return s[first+1 : last]
}

// maxRedirects bounds how many 3xx hops doWithRedirects will follow,
// matching "redirects are followed" without risking an infinite loop on
// a misbehaving origin.
const maxRedirects = 10

// doWithRedirects performs req against client, following 3xx responses
// up to maxRedirects times, with timeout applied to the whole chain
// (not per-hop). fasthttp's own DoRedirects has no timeout variant, so
// the chain is driven by hand with the remaining budget recomputed
// before each hop.
func doWithRedirects(client *fasthttp.Client, req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration, maxRedirects int) error {
	deadline := time.Now().Add(timeout)

	for hop := 0; ; hop++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fasthttp.ErrTimeout
		}

		resp.Reset()
		if err := client.DoTimeout(req, resp, remaining); err != nil {
			return err
		}

		status := resp.StatusCode()
		isRedirect := status == fasthttp.StatusMovedPermanently || status == fasthttp.StatusFound ||
			status == fasthttp.StatusSeeOther || status == fasthttp.StatusTemporaryRedirect ||
			status == fasthttp.StatusPermanentRedirect
		if !isRedirect || hop >= maxRedirects {
			return nil
		}

		location := resp.Header.Peek("Location")
		if len(location) == 0 {
			return nil
		}

		req.URI().UpdateBytes(location)
	}
}
