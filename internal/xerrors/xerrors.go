// Package xerrors defines the sentinel error taxonomy shared by every xsra
// package. Errors that need structured context wrap one of these sentinels
// with fmt.Errorf's %w verb (the cgo reader in internal/sra uses
// github.com/pkg/errors.Wrapf instead), in the plain-sentinel style of
// grailbio/bio's encoding/bam/marshal.go.
package xerrors

import "errors"

var (
	// ErrSourceOpen is returned when an archive is neither a database with a
	// SEQUENCE table nor a bare table.
	ErrSourceOpen = errors.New("xsra: archive is neither a SEQUENCE database nor a bare table")

	// ErrSchema is returned when a mandatory column is missing, or a paired
	// spot is missing its extended segment.
	ErrSchema = errors.New("xsra: schema error")

	// ErrRange is a non-fatal warning: the requested row range exceeded
	// archive bounds and was coerced.
	ErrRange = errors.New("xsra: requested row range exceeds archive bounds")

	// ErrEncode covers BINSEQ fixed-length mismatches and invalid bases under
	// a strict recovery policy.
	ErrEncode = errors.New("xsra: encode error")

	// ErrIO covers sink write/flush failures, FIFO creation failures, and
	// native reader decode failures.
	ErrIO = errors.New("xsra: io error")

	// ErrResolution is surfaced verbatim from the accession resolver.
	ErrResolution = errors.New("xsra: could not resolve accession to a location")

	// ErrConfig covers invalid OutputSpec combinations: a named-pipe path
	// already occupied by a non-FIFO file, or named pipes requested on an
	// unsupported OS.
	ErrConfig = errors.New("xsra: configuration error")
)
