//go:build !unix

package ssdp

import "syscall"

// setReuseAddrAndPort is a no-op on platforms without SO_REUSEPORT; the
// socket is still bound and functional, just not shareable across
// processes.
func setReuseAddrAndPort(_, _ string, _ syscall.RawConn) error {
	return nil
}
