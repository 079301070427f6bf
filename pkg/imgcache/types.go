package imgcache

// Callback is the single delivery function supplied to Init. It is
// invoked with the bytes for url; the slice belongs to the worker and
// must not be retained past the call.
type Callback func(url string, bytes []byte)

// workItem is the payload carried on the work queue: either a fresh or
// revalidated network result, or a disk-hit fast-path read request.
//
// The wire shape named by the protocol is really only {url, bytes,
// requestFailed}; a disk-hit item and a 304 "not modified" item both
// have bytes=nil, requestFailed=false, yet the worker must treat them
// differently (deliver the disk copy vs. do nothing, since the disk
// copy was already delivered at load time). diskHit makes that
// distinction explicit instead of inferring it from queue position.
type workItem struct {
	url string

	// bytes holds a freshly downloaded (or re-downloaded) body. Nil
	// means no fresh bytes arrived this round.
	bytes         []byte
	requestFailed bool

	// diskHit marks an item pushed directly by Load for an
	// already-cached URL: the worker reads the blob back off disk and
	// delivers it, rather than treating nil bytes as a no-op.
	diskHit bool
}

// diskHitItem builds the WorkItem the public API's Load pushes directly
// for an existing blob, bypassing the fetcher entirely.
func diskHitItem(url string) workItem {
	return workItem{url: url, diskHit: true}
}
