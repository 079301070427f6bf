//go:build windows

package imgcache

import (
	"os"
	"time"
)

// blobAccessTime falls back to mtime on windows: os.FileInfo carries no
// portable atime field without extra syscalls, and NTFS last-access
// tracking is commonly disabled system-wide for performance anyway. This
// is a documented deviation from the atime-based TTL described for unix.
func blobAccessTime(_ string, de os.DirEntry) (time.Time, error) {
	info, err := de.Info()
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// readBlob reads the file directly: plain file I/O instead of
// syscall.Mmap, which Windows does not expose the same way Unix does.
func readBlob(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, nil
	}
	return os.ReadFile(path)
}
