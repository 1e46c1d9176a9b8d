//go:build !unix && !windows

package channel

import "syscall"

func reuseControl(network, address string, c syscall.RawConn) error {
	return nil
}
