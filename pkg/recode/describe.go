package recode

import (
	"context"
	"fmt"

	"github.com/grailbio/xsra/internal/sra"
)

// SegmentStats summarizes one segment id's shape over a sample of spots,
// grounded on original_source/src/describe/mod.rs's describe_inner and
// calculate_average_quality.
type SegmentStats struct {
	SID         int
	Count       int
	MinLen      uint32
	MaxLen      uint32
	MeanLen     float64
	MeanQuality float64
	Type        sra.SegType
}

// Describe samples up to surveySize leading spots of the archive src opens
// and reports per-sid length and quality statistics, the same sample this
// package's Run uses to derive BINSEQ/VBINSEQ headers.
func Describe(ctx context.Context, open func(ctx context.Context) (sra.Source, error), sids []int) ([]SegmentStats, error) {
	src, err := open(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe: opening archive: %w", err)
	}
	defer src.Close()

	total, err := src.TotalSpots()
	if err != nil {
		return nil, err
	}
	stop := total
	if surveySize < stop {
		stop = surveySize
	}
	if stop == 0 {
		return nil, fmt.Errorf("describe: archive has no spots to sample")
	}

	iter, err := src.Range(sra.RowRange{Start: 1, Stop: stop})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	type accum struct {
		count    int
		minLen   uint32
		maxLen   uint32
		lenSum   uint64
		qualSum  float64
		segType  sra.SegType
		sawFirst bool
	}
	accums := make(map[int]*accum, len(sids))
	for _, sid := range sids {
		accums[sid] = &accum{}
	}

	for iter.Scan() {
		spot := iter.Spot()
		for _, sid := range sids {
			if sid >= len(spot.Segments) {
				return nil, fmt.Errorf("describe: segment id %d not present in spot %d", sid, spot.RID)
			}
			seg := spot.Segments[sid]
			a := accums[sid]
			l := uint32(len(seg.Seq))
			if !a.sawFirst {
				a.minLen, a.maxLen = l, l
				a.sawFirst = true
				a.segType = seg.Type
			} else {
				if l < a.minLen {
					a.minLen = l
				}
				if l > a.maxLen {
					a.maxLen = l
				}
			}
			a.lenSum += uint64(l)
			a.qualSum += averageQuality(seg.Qual)
			a.count++
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	stats := make([]SegmentStats, 0, len(sids))
	for _, sid := range sids {
		a := accums[sid]
		s := SegmentStats{SID: sid, Count: a.count, MinLen: a.minLen, MaxLen: a.maxLen, Type: a.segType}
		if a.count > 0 {
			s.MeanLen = float64(a.lenSum) / float64(a.count)
			s.MeanQuality = a.qualSum / float64(a.count)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// averageQuality converts PHRED+33 ASCII quality bytes to a mean PHRED
// score, mirroring calculate_average_quality's byte-minus-33 arithmetic.
func averageQuality(qual []byte) float64 {
	if len(qual) == 0 {
		return 0
	}
	var sum int
	for _, q := range qual {
		sum += int(q) - 33
	}
	return float64(sum) / float64(len(qual))
}
