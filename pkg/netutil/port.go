// Package netutil holds small networking helpers.
package netutil

import "net"

// FreePort asks the kernel to assign an unused TCP port and returns it,
// for a server the caller didn't pin to a fixed address.
func FreePort() (int, error) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
