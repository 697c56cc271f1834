//go:build unix

package ssdp

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseAddrAndPort is the net.ListenConfig.Control callback that sets
// SO_REUSEADDR and SO_REUSEPORT on the SSDP socket before bind, per
// spec.md §4.4 "Socket". Multiple processes (or this one restarting
// quickly) can then share port 1900.
func setReuseAddrAndPort(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if sockErr != nil {
			return
		}
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
