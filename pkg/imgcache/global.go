package imgcache

import (
	"fmt"
	"sync"

	"imgcache/pkg/config"
)

// The reference design keeps the cache path, callback, index and thread
// handles as process-global state. Cache (cache.go) replaces that with a
// single owning handle passed explicitly; Init/Destroy/Load/Remove below
// are a thin optional shim over one such handle, offered only for
// embedding environments that genuinely need process-global entry
// points instead of a value to hold onto.
var (
	globalMu    sync.Mutex
	globalCache *Cache
)

// Init opens a process-global Cache. Preconditions: called exactly once
// before Destroy; calling it again while a global cache is already open
// returns an error instead of silently leaking the first one.
func Init(opts config.Options, callback Callback) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalCache != nil {
		return fmt.Errorf("imgcache: Init called while a global cache is already open")
	}
	c, err := Open(opts, callback)
	if err != nil {
		return err
	}
	globalCache = c
	return nil
}

// Destroy closes the process-global Cache opened by Init. Calling it
// without a prior Init is a no-op.
func Destroy() error {
	globalMu.Lock()
	c := globalCache
	globalCache = nil
	globalMu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}

// Load calls Load on the process-global Cache. It is a no-op if Init has
// not been called.
func Load(url string) {
	globalMu.Lock()
	c := globalCache
	globalMu.Unlock()
	if c != nil {
		c.Load(url)
	}
}

// Remove calls Remove on the process-global Cache. It is a no-op if Init
// has not been called.
func Remove(url string) {
	globalMu.Lock()
	c := globalCache
	globalMu.Unlock()
	if c != nil {
		c.Remove(url)
	}
}
