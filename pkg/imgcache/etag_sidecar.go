package imgcache

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// sidecarName is the file next to the blobs holding the URL -> ETag index.
const sidecarName = ".etags"

// loadFromDisk parses the sidecar file, tolerating truncation: parsing
// stops at the first malformed or incomplete line without raising an
// error, and whatever was accumulated before that point is kept. Entries
// with an empty URL or empty ETag are skipped, matching what
// flushToDisk omits when writing.
func (idx *etagIndex) loadFromDisk(dir string) error {
	path := filepath.Join(dir, sidecarName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			idx.replace(nil)
			return nil
		}
		return err
	}

	entries := make([]ETagEntry, 0, bytes.Count(data, []byte{'\n'}))
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		url, etag, ok := parseSidecarLine(line)
		if !ok {
			break
		}
		if url == "" || etag == "" {
			continue
		}
		entries = append(entries, ETagEntry{URL: url, ETag: etag})
	}
	// A Scan() error (e.g. a line exceeding the buffer) is treated the
	// same as hitting malformed trailing data: keep what was parsed.

	idx.replace(entries)
	return nil
}

// parseSidecarLine splits a "URL SP ETAG" line. ok is false when the line
// has no separating space, which the parser treats as the first
// malformed line it won't proceed past.
func parseSidecarLine(line string) (url, etag string, ok bool) {
	i := strings.IndexByte(line, ' ')
	if i < 0 {
		return "", "", false
	}
	return line[:i], line[i+1:], true
}

// sidecarSafe reports whether url can be written verbatim into the
// line-oriented sidecar format: no escaping is defined, so a URL
// containing a space or newline is rejected rather than corrupting the
// file.
func sidecarSafe(url string) bool {
	return !strings.ContainsAny(url, " \n")
}

// flushToDisk atomically replaces the sidecar with the full in-memory
// index: write to a temp file in the same directory, fsync, then rename
// over the old file so a reader never observes a partial write.
func (idx *etagIndex) flushToDisk(dir string) error {
	entries := idx.snapshot()

	tmp, err := os.CreateTemp(dir, sidecarName+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	w := bufio.NewWriter(tmp)
	for _, e := range entries {
		if e.URL == "" || e.ETag == "" {
			continue
		}
		if !sidecarSafe(e.URL) {
			continue
		}
		if _, err := w.WriteString(e.URL); err != nil {
			tmp.Close()
			return err
		}
		if _, err := w.WriteString(" "); err != nil {
			tmp.Close()
			return err
		}
		if _, err := w.WriteString(e.ETag); err != nil {
			tmp.Close()
			return err
		}
		if _, err := w.WriteString("\n"); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	path := filepath.Join(dir, sidecarName)
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	idx.mu.Lock()
	idx.dirty = false
	idx.mu.Unlock()
	return nil
}
