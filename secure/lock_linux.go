//go:build linux

package secure

import "golang.org/x/sys/unix"

// lock page-locks b with mlock(2) so the kernel won't swap a PIN or
// key out to disk. Failure (commonly EPERM/RLIMIT_MEMLOCK under an
// unprivileged user) is non-fatal — the buffer is still scrubbed on
// Clear, just not swap-protected.
func lock(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	return unix.Mlock(b) == nil
}

func unlock(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Munlock(b)
}
