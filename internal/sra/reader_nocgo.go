//go:build !cgo
// +build !cgo

package sra

import (
	"context"

	"github.com/grailbio/xsra/internal/xerrors"
)

// ErrCGORequired is returned by openNative when xsra is built without cgo.
// The native VDB binding has no pure-Go fallback (spec.md §9 Design Notes:
// the reader is a C ABI library exposed through thin bindings); tests and
// tooling that need a Source without cgo should use NewFakeSource instead,
// matching encoding/bamprovider.NewFakeProvider's role in the teacher repo.
var ErrCGORequired = xerrors.ErrSourceOpen

func openNative(ctx context.Context, location string) (Source, error) {
	return nil, ErrCGORequired
}
