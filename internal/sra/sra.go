// Package sra implements the Record Source contract (spec component C1):
// opening an SRA accession as a local file or streamed location, reporting
// its spot count, and yielding spots over a row range as an ordered,
// forward-only sequence of segments.
//
// The design mirrors encoding/bamprovider's Provider/Iterator split in the
// teacher repo: a thread-safe Source that hands out independent Iterators,
// each of which lends record data valid only until the next Scan.
package sra

import (
	"context"
	"fmt"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/xsra/internal/xerrors"
)

// SegType distinguishes biological read segments from technical ones
// (adapters, indices, UMIs). It is derived from the low bit of the
// READ_TYPE column, per the INSDC convention (spec.md Design Notes §9).
type SegType uint8

const (
	// Technical segments are adapters, barcodes, or other non-biological
	// regions. The low bit of READ_TYPE is clear.
	Technical SegType = iota
	// Biological segments carry sequenced biological material. The low bit
	// of READ_TYPE is set.
	Biological
)

func (t SegType) String() string {
	if t == Biological {
		return "biological"
	}
	return "technical"
}

// Segment is a borrowed view over one sub-read of a Spot. Seq and Qual
// remain valid only until the owning Iterator's next Scan call; callers that
// need to retain segment bytes past that point must copy them explicitly.
type Segment struct {
	SID  int // 0-based index within the owning spot
	RID  uint64
	Type SegType
	Seq  []byte // IUPAC nucleotide bytes
	Qual []byte // PHRED+33 ASCII bytes, len(Qual) == len(Seq) unless the encoder ignores quality
}

// Spot is one sequencing read cluster: a row in the archive's SEQUENCE
// table, 1-indexed by RID, holding one or more Segments.
type Spot struct {
	RID      uint64
	Segments []Segment
}

// RowRange is a half-open-on-neither-end, 1-indexed inclusive row range:
// [Start, Stop]. Row ids never wrap, and Stop must not exceed the archive's
// total spot count.
type RowRange struct {
	Start, Stop uint64
}

// Len returns the number of rows covered by the range.
func (r RowRange) Len() uint64 {
	if r.Stop < r.Start {
		return 0
	}
	return r.Stop - r.Start + 1
}

// SpotIterator yields Spots over a single RowRange, in increasing RID order.
// Thread compatible: a single SpotIterator must not be shared across
// goroutines, but distinct SpotIterators created from distinct Sources (or
// the same Source's independent Range calls) may run concurrently.
type SpotIterator interface {
	// Scan advances to the next spot and reports whether one is available.
	// Once Scan returns false it never returns true again; callers should
	// check Err to distinguish a clean end of range from a read failure.
	Scan() bool

	// Spot returns the current spot. Its Segments' Seq/Qual slices are only
	// valid until the next call to Scan.
	Spot() Spot

	// Err returns the first error encountered during iteration, or nil.
	Err() error

	// Close releases the iterator's column cursor. Must be called exactly
	// once.
	Close() error
}

// Source opens an SRA archive (by local path or streamed location) and
// yields independent SpotIterators over arbitrary row ranges. A Source must
// support multiple concurrent Range calls backed by independent native
// cursors; it performs no internal cross-goroutine sharing (spec.md §5).
type Source interface {
	// TotalSpots reports the archive's spot count.
	TotalSpots() (uint64, error)

	// Range returns an iterator over [rng.Start, rng.Stop], both 1-indexed
	// and inclusive.
	Range(rng RowRange) (SpotIterator, error)

	// Close releases resources held by the Source itself. Iterators
	// obtained from Range must be closed independently, before or after
	// Close.
	Close() error
}

// Open resolves location (a local filesystem path or a streaming URL) and
// returns a Source over it. The underlying native reader tunnels streaming
// reads itself when location is a URL, the same way the teacher's
// encoding/bamprovider.BAMProvider transparently opens local-or-remote paths
// via github.com/grailbio/base/file. Callers are expected to have already
// resolved a bare accession name to a location via internal/resolve.
func Open(ctx context.Context, location string) (Source, error) {
	if ctx == nil {
		ctx = vcontext.Background()
	}
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", xerrors.ErrSourceOpen)
	}
	return openNative(ctx, location)
}
