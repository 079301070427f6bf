//go:build darwin || linux

package imgcache

import (
	"os"
	"syscall"
	"time"
)

// blobAccessTime returns the file's atime, the signal scanAndEvict uses
// for the TTL check: a read is taken as evidence of continued relevance.
func blobAccessTime(path string, _ os.DirEntry) (time.Time, error) {
	var st syscall.Stat_t
	if err := syscall.Stat(path, &st); err != nil {
		return time.Time{}, err
	}
	return time.Unix(st.Atim.Sec, st.Atim.Nsec), nil
}

// readBlob memory-maps the file, copies it into a heap buffer, and unmaps
// before returning — the mapping must not outlive the syscall that
// produced it, so downstream code never sees raw mapped memory.
func readBlob(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return nil, nil
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	defer syscall.Munmap(data)

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
