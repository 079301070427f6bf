package fsutil

import (
	"os"
	"testing"
)

func TestWriteReadRemoveLock(t *testing.T) {
	dir := t.TempDir()

	if err := WriteLock(dir); err != nil {
		t.Fatalf("WriteLock: %v", err)
	}

	pid, err := ReadLockPID(dir)
	if err != nil {
		t.Fatalf("ReadLockPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}

	if err := RemoveLock(dir); err != nil {
		t.Fatalf("RemoveLock: %v", err)
	}
	if _, err := ReadLockPID(dir); err == nil {
		t.Fatalf("expected an error reading a removed lock file")
	}
}

func TestRemoveLock_MissingIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	if err := RemoveLock(dir); err != nil {
		t.Fatalf("RemoveLock on missing file: %v", err)
	}
}
