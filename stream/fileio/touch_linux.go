//go:build linux

package fileio

import (
	"os"

	"golang.org/x/sys/unix"

	"go.nodeoze.dev/core/corerr"
)

// truncateExtend grows f to size bytes via a direct ftruncate syscall,
// leaving the newly exposed range as a sparse hole rather than writing
// explicit zero bytes.
func truncateExtend(f *os.File, size int64) error {
	if err := unix.Ftruncate(int(f.Fd()), size); err != nil {
		return corerr.WrapIO("ftruncate", err)
	}
	return nil
}
