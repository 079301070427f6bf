package imgcache

import (
	"encoding/hex"

	"github.com/twmb/murmur3"
)

// FilenamePrefix tags every blob file so eviction can tell cache entries
// apart from unrelated files dropped into the cache directory.
const FilenamePrefix = "I$"

// hashHexLen is the length in characters of the hex-encoded 128-bit hash.
const hashHexLen = 32

// FilenameLength is the fixed total length of a derived filename. Eviction
// relies on this being exact; changing FilenamePrefix or the hash size
// requires revisiting scanAndEvict.
const FilenameLength = len(FilenamePrefix) + hashHexLen

// filenameOf derives the on-disk blob filename for a URL: a fixed-length
// token made of FilenamePrefix followed by the lowercase hex encoding of
// the URL's 128-bit murmur3 hash. The hash is not cryptographic and
// collisions are possible (collision probability is negligible but not
// guaranteed zero); a collision manifests as stale content delivered for
// one of the colliding URLs, which this design accepts.
func filenameOf(url string) string {
	h1, h2 := murmur3.SeedSum128(0, 0, []byte(url))
	var buf [16]byte
	putUint64(buf[0:8], h1)
	putUint64(buf[8:16], h2)
	return FilenamePrefix + hex.EncodeToString(buf[:])
}

func putUint64(b []byte, v uint64) {
	_ = b[7]
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
}

// looksLikeBlobName reports whether name has the shape scanAndEvict
// expects: fixed length and the right prefix. It does not validate that
// the hex portion decodes to anything in particular.
func looksLikeBlobName(name string) bool {
	if len(name) != FilenameLength {
		return false
	}
	if name[:len(FilenamePrefix)] != FilenamePrefix {
		return false
	}
	_, err := hex.DecodeString(name[len(FilenamePrefix):])
	return err == nil
}

// hashSuffixOf returns the hex hash suffix of a URL's derived filename,
// i.e. filenameOf(url) with FilenamePrefix stripped. Eviction uses this to
// match an on-disk filename against a URL it only knows by hash.
func hashSuffixOf(url string) string {
	return filenameOf(url)[len(FilenamePrefix):]
}
