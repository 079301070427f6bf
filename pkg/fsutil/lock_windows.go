//go:build windows

package fsutil

import "os"

// windows has no SIGTERM; Kill is the closest equivalent to "ask this
// process to stop right now".
func signalShutdown(proc *os.Process) error {
	return proc.Kill()
}
