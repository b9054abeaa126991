//go:build !unix
// +build !unix

package sink

import (
	"fmt"

	"github.com/grailbio/xsra/internal/xerrors"
)

// ensureFIFO always fails on non-unix hosts, per spec.md §4.4.
func ensureFIFO(path string) error {
	return fmt.Errorf("%w: named pipes are not supported on this platform", xerrors.ErrConfig)
}
