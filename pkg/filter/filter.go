// Package filter implements the per-segment predicate (spec component C2):
// include-set membership, technical-segment skipping, and minimum-length
// rejection, applied in that fixed order. It is grounded directly on the
// filter chain inlined in original_source/src/dump/mod.rs's launch_threads,
// pulled out into its own pure, independently-testable package the way the
// teacher separates markduplicates' predicate helpers from its worker loop.
package filter

import "github.com/grailbio/xsra/internal/sra"

// Reason identifies why a segment was rejected, or None if it was accepted.
type Reason int

const (
	// None means the segment was accepted.
	None Reason = iota
	// Include means the segment's sid was outside a non-empty include set.
	// Segments dropped for this reason are not counted (spec.md §4.2).
	Include
	// Type means the segment was technical and SkipTechnical is set.
	Type
	// Size means the segment was shorter than MinLen.
	Size
)

// Spec is the per-segment filter configuration. An empty Include set means
// "keep every segment id".
type Spec struct {
	Include       map[int]bool
	SkipTechnical bool
	MinLen        uint32
}

// Accept applies the filter chain to seg and reports whether it survives,
// along with the reason for rejection (None if accepted). SpotLimit is not
// evaluated here: it bounds the row range a worker iterates and is applied
// by pkg/coordinator, per spec.md §4.2.
func (s Spec) Accept(seg sra.Segment) (bool, Reason) {
	if len(s.Include) > 0 && !s.Include[seg.SID] {
		return false, Include
	}
	if s.SkipTechnical && seg.Type == sra.Technical {
		return false, Type
	}
	if uint32(len(seg.Seq)) < s.MinLen {
		return false, Size
	}
	return true, None
}
