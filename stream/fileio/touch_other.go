//go:build !linux

package fileio

import (
	"os"

	"go.nodeoze.dev/core/corerr"
)

// truncateExtend grows f to size bytes via the portable os.File.Truncate,
// which most non-Linux filesystems also implement as a sparse extend.
func truncateExtend(f *os.File, size int64) error {
	if err := f.Truncate(size); err != nil {
		return corerr.WrapIO("truncate", err)
	}
	return nil
}
