// Package imgcache implements an asynchronous, on-disk cache for images
// fetched over HTTP. A previously cached copy is served immediately when
// one exists, then revalidated against the origin with an ETag conditional
// request; fresh bytes are installed back into the cache and delivered to
// the caller through a single callback.
package imgcache
