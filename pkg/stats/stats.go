// Package stats implements the Statistics component (spec C7): per-segment
// counters that form a commutative monoid under elementwise addition with
// right-padding, grounded directly on
// original_source/src/dump/stats.rs's ProcessStatistics and its `impl Add`.
package stats

import (
	"fmt"
	"io"
)

// ProcessStatistics accumulates per-run counters. Written, FilterSize, and
// FilterType are indexed by segment id and grow lazily; Merge right-pads the
// shorter vector with zeros before summing, per spec.md §3 and §4.7.
type ProcessStatistics struct {
	Spots uint64
	Reads uint64

	Written    []uint64
	FilterSize []uint64
	FilterType []uint64
}

// IncSpots records one more spot processed.
func (p *ProcessStatistics) IncSpots() {
	p.Spots++
}

// IncWritten records one more segment written for sid.
func (p *ProcessStatistics) IncWritten(sid int) {
	p.Reads++
	growTo(&p.Written, sid)
	p.Written[sid]++
}

// IncFilterSize records one more segment dropped by the minimum-length rule
// for sid.
func (p *ProcessStatistics) IncFilterSize(sid int) {
	growTo(&p.FilterSize, sid)
	p.FilterSize[sid]++
}

// IncFilterType records one more segment dropped by the technical-skip rule
// for sid.
func (p *ProcessStatistics) IncFilterType(sid int) {
	growTo(&p.FilterType, sid)
	p.FilterType[sid]++
}

func growTo(v *[]uint64, sid int) {
	if sid >= len(*v) {
		grown := make([]uint64, sid+1)
		copy(grown, *v)
		*v = grown
	}
}

// Merge combines a and b elementwise, right-padding the shorter per-segment
// vectors with zero. Merge is associative and commutative, and the zero
// value of ProcessStatistics is its identity (spec.md §4.7, §8 property 3).
func Merge(a, b ProcessStatistics) ProcessStatistics {
	return ProcessStatistics{
		Spots:      a.Spots + b.Spots,
		Reads:      a.Reads + b.Reads,
		Written:    addVec(a.Written, b.Written),
		FilterSize: addVec(a.FilterSize, b.FilterSize),
		FilterType: addVec(a.FilterType, b.FilterType),
	}
}

func addVec(a, b []uint64) []uint64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return nil
	}
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		var av, bv uint64
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		out[i] = av + bv
	}
	return out
}

// WriteSummary prints a human-readable report to w, grounded on
// dump/stats.rs's pprint.
func WriteSummary(w io.Writer, p ProcessStatistics) error {
	if _, err := fmt.Fprintf(w, "Number of spots processed: %d\n", p.Spots); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Number of reads written: %d\n", p.Reads); err != nil {
		return err
	}
	if err := writeVec(w, "Reads written per segment:", p.Written); err != nil {
		return err
	}
	if err := writeVec(w, "Filtered reads by size:", p.FilterSize); err != nil {
		return err
	}
	return writeVec(w, "Filtered reads by type:", p.FilterType)
}

func writeVec(w io.Writer, title string, v []uint64) error {
	if len(v) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for i, count := range v {
		if _, err := fmt.Fprintf(w, "  Segment %d: %d\n", i, count); err != nil {
			return err
		}
	}
	return nil
}
