//go:build !windows

package organize

import "golang.org/x/sys/unix"

// canReadWrite asks the kernel whether the process may list, read and
// create entries in dir.
func canReadWrite(dir string) error {
	return unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK)
}
