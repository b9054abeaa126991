//go:build unix
// +build unix

package sink

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/grailbio/xsra/internal/xerrors"
)

// ensureFIFO creates a FIFO at path if nothing exists there yet, and fails
// if a non-FIFO file already occupies the path (spec.md §4.4).
func ensureFIFO(path string) error {
	info, err := os.Lstat(path)
	if err == nil {
		if info.Mode()&os.ModeNamedPipe == 0 {
			return fmt.Errorf("%w: %s exists and is not a FIFO", xerrors.ErrConfig, path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat %s: %v", xerrors.ErrIO, path, err)
	}
	if err := unix.Mkfifo(path, 0o644); err != nil {
		return fmt.Errorf("%w: mkfifo %s: %v", xerrors.ErrIO, path, err)
	}
	return nil
}
