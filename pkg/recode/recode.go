// Package recode implements the Recode Engine (spec component C8): it
// specializes the partition-and-join shape of pkg/coordinator with a
// single shared BINSEQ or VBINSEQ binary writer instead of a per-sid Sink
// Array. Grounded on original_source/src/recode/mod.rs's recode_to_binseq
// and recode_to_vbinseq, and on describe/mod.rs's describe_inner for the
// preliminary length survey.
package recode

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/grailbio/base/traverse"

	"github.com/grailbio/xsra/internal/sra"
	"github.com/grailbio/xsra/internal/xerrors"
	"github.com/grailbio/xsra/pkg/encode/binseq"
	"github.com/grailbio/xsra/pkg/encode/vbinseq"
)

// surveySize is the number of leading spots sampled to establish per-sid
// segment lengths, mirroring recode/mod.rs's describe_inner(accession, 0,
// 100).
const surveySize = 100

// threadUpdateInterval is the spot cadence at which a worker ingests its
// thread-local encoder into the shared writer (spec.md §4.8).
const threadUpdateInterval = 1024

// Flavor selects the target binary format.
type Flavor int

const (
	Binseq Flavor = iota
	VBinseq
)

// Config configures one recode Run.
type Config struct {
	Open        func(ctx context.Context) (sra.Source, error)
	OutputPath  string
	Flavor      Flavor
	PrimarySID  int
	ExtendedSID int // only meaningful if Paired
	Paired      bool
	BlockSize   uint64 // VBinseq only
	Threads     int    // 0 means runtime.NumCPU()
}

func (c Config) resolveThreads() int {
	if c.Threads <= 0 {
		return runtime.NumCPU()
	}
	return c.Threads
}

// lengthSurvey holds the outcome of sampling surveySize spots: whether sid
// is fixed-length across the sample, and what that length is.
type lengthSurvey struct {
	fixed bool
	length uint32
}

// survey samples the first surveySize spots of src and reports, for each of
// the sids needed, whether every sampled segment of that sid had the same
// length (spec.md §4.8's "fail unless lengths are integral").
func survey(src sra.Source, sids []int) (map[int]lengthSurvey, error) {
	total, err := src.TotalSpots()
	if err != nil {
		return nil, err
	}
	stop := total
	if surveySize < stop {
		stop = surveySize
	}
	if stop == 0 {
		return nil, fmt.Errorf("recode: archive has no spots to survey")
	}

	iter, err := src.Range(sra.RowRange{Start: 1, Stop: stop})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	results := make(map[int]lengthSurvey, len(sids))
	seen := make(map[int]bool, len(sids))
	for _, sid := range sids {
		results[sid] = lengthSurvey{fixed: true}
	}

	for iter.Scan() {
		spot := iter.Spot()
		for _, sid := range sids {
			if sid >= len(spot.Segments) {
				return nil, fmt.Errorf("recode: segment id %d not present in spot %d", sid, spot.RID)
			}
			l := uint32(len(spot.Segments[sid].Seq))
			r := results[sid]
			if !seen[sid] {
				r.length = l
				seen[sid] = true
			} else if r.length != l {
				r.fixed = false
			}
			results[sid] = r
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Run performs a full recode: survey, header derivation, per-partition
// workers each owning a headerless thread-local encoder, periodic ingest
// into the shared writer under a mutex, and a final flush.
func Run(ctx context.Context, cfg Config) error {
	sids := []int{cfg.PrimarySID}
	if cfg.Paired {
		sids = append(sids, cfg.ExtendedSID)
	}

	probe, err := cfg.Open(ctx)
	if err != nil {
		return fmt.Errorf("recode: opening archive: %w", err)
	}
	lengths, err := survey(probe, sids)
	total, totalErr := probe.TotalSpots()
	probe.Close()
	if err != nil {
		return err
	}
	if totalErr != nil {
		return totalErr
	}

	var header binseq.Header
	if cfg.Flavor == Binseq {
		var err error
		if header, err = binseqHeaderFromSurvey(cfg, lengths); err != nil {
			return err
		}
	}

	out, err := os.Create(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("recode: creating %s: %w", cfg.OutputPath, err)
	}
	defer out.Close()

	switch cfg.Flavor {
	case Binseq:
		return runBinseq(ctx, cfg, header, total, out)
	case VBinseq:
		return runVBinseq(ctx, cfg, total, out)
	default:
		return fmt.Errorf("recode: unknown flavor %d", cfg.Flavor)
	}
}

// binseqHeaderFromSurvey validates that the primary (and, if paired,
// extended) segment is fixed-length across the sample and derives the
// BINSEQ header, run before any output file is created so a variance
// failure leaves no file behind (spec.md §8 scenario 6), mirroring
// original_source/src/recode/mod.rs's recode_to_binseq, which bails before
// File::create.
func binseqHeaderFromSurvey(cfg Config, lengths map[int]lengthSurvey) (binseq.Header, error) {
	primary := lengths[cfg.PrimarySID]
	if !primary.fixed {
		return binseq.Header{}, fmt.Errorf("%w: segment %d shows variance in length; cannot encode to BINSEQ (try VBINSEQ instead)", xerrors.ErrEncode, cfg.PrimarySID)
	}
	if !cfg.Paired {
		return binseq.NewHeader(primary.length), nil
	}
	extended := lengths[cfg.ExtendedSID]
	if !extended.fixed {
		return binseq.Header{}, fmt.Errorf("%w: segment %d shows variance in length; cannot encode to BINSEQ (try VBINSEQ instead)", xerrors.ErrEncode, cfg.ExtendedSID)
	}
	return binseq.NewExtendedHeader(primary.length, extended.length), nil
}

func runBinseq(ctx context.Context, cfg Config, header binseq.Header, total uint64, out *os.File) error {
	global, err := binseq.NewWriter(out, header, binseq.RandomDraw, false)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	threads := cfg.resolveThreads()
	ranges := partitionRange(total, threads)
	if err := traverse.Each(len(ranges), func(i int) error {
		src, err := cfg.Open(ctx)
		if err != nil {
			return err
		}
		defer src.Close()

		local, err := binseq.NewWriter(nil, header, binseq.RandomDraw, true)
		if err != nil {
			return err
		}

		return processBinseqRange(cfg, src, ranges[i], local, &mu, global)
	}); err != nil {
		return err
	}
	return global.Flush()
}

func processBinseqRange(cfg Config, src sra.Source, rng sra.RowRange, local *binseq.Writer, mu *sync.Mutex, global *binseq.Writer) error {
	iter, err := src.Range(rng)
	if err != nil {
		return err
	}
	defer iter.Close()

	n := 0
	for iter.Scan() {
		spot := iter.Spot()
		if cfg.PrimarySID >= len(spot.Segments) {
			return fmt.Errorf("%w: segment id %d missing for spot %d", xerrors.ErrSchema, cfg.PrimarySID, spot.RID)
		}
		primary := spot.Segments[cfg.PrimarySID].Seq
		if cfg.Paired {
			if cfg.ExtendedSID >= len(spot.Segments) {
				return fmt.Errorf("%w: paired spot %d is missing its extended segment %d", xerrors.ErrSchema, spot.RID, cfg.ExtendedSID)
			}
			extended := spot.Segments[cfg.ExtendedSID].Seq
			if err := local.WritePaired(0, primary, extended); err != nil {
				return err
			}
		} else {
			if err := local.WriteNucleotides(0, primary); err != nil {
				return err
			}
		}

		n++
		if n%threadUpdateInterval == 0 {
			if err := ingestBinseq(mu, global, local); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return ingestBinseq(mu, global, local)
}

func ingestBinseq(mu *sync.Mutex, global, local *binseq.Writer) error {
	mu.Lock()
	defer mu.Unlock()
	if err := global.Ingest(local); err != nil {
		return err
	}
	return global.Flush()
}

func runVBinseq(ctx context.Context, cfg Config, total uint64, out *os.File) error {
	header := vbinseq.WithCapacity(cfg.BlockSize, true, cfg.Paired)
	global, err := vbinseq.NewWriter(out, header, false)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	threads := cfg.resolveThreads()
	ranges := partitionRange(total, threads)
	if err := traverse.Each(len(ranges), func(i int) error {
		src, err := cfg.Open(ctx)
		if err != nil {
			return err
		}
		defer src.Close()

		local, err := vbinseq.NewWriter(nil, header, true)
		if err != nil {
			return err
		}

		return processVBinseqRange(cfg, src, ranges[i], local, &mu, global)
	}); err != nil {
		return err
	}
	return global.Flush()
}

func processVBinseqRange(cfg Config, src sra.Source, rng sra.RowRange, local *vbinseq.Writer, mu *sync.Mutex, global *vbinseq.Writer) error {
	iter, err := src.Range(rng)
	if err != nil {
		return err
	}
	defer iter.Close()

	n := 0
	for iter.Scan() {
		spot := iter.Spot()
		if cfg.PrimarySID >= len(spot.Segments) {
			return fmt.Errorf("%w: segment id %d missing for spot %d", xerrors.ErrSchema, cfg.PrimarySID, spot.RID)
		}
		primary := spot.Segments[cfg.PrimarySID]
		var mate []byte
		if cfg.Paired {
			if cfg.ExtendedSID >= len(spot.Segments) {
				return fmt.Errorf("%w: paired spot %d is missing its extended segment %d", xerrors.ErrSchema, spot.RID, cfg.ExtendedSID)
			}
			mate = spot.Segments[cfg.ExtendedSID].Seq
		}
		if err := local.WriteRecord(primary.Seq, primary.Qual, mate); err != nil {
			return err
		}

		n++
		if n%threadUpdateInterval == 0 {
			if err := ingestVBinseq(mu, global, local); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return ingestVBinseq(mu, global, local)
}

func ingestVBinseq(mu *sync.Mutex, global, local *vbinseq.Writer) error {
	mu.Lock()
	defer mu.Unlock()
	if err := global.Ingest(local); err != nil {
		return err
	}
	return global.Flush()
}

// partitionRange splits [1, n] into up to threads contiguous row ranges,
// the last absorbing the remainder, same rule as pkg/coordinator's
// partition.
func partitionRange(n uint64, threads int) []sra.RowRange {
	if n == 0 {
		return nil
	}
	if threads < 1 {
		threads = 1
	}
	if uint64(threads) > n {
		threads = int(n)
	}
	per := n / uint64(threads)
	remainder := n % uint64(threads)

	ranges := make([]sra.RowRange, threads)
	start := uint64(1)
	for i := 0; i < threads; i++ {
		count := per
		if i == threads-1 {
			count += remainder
		}
		ranges[i] = sra.RowRange{Start: start, Stop: start + count - 1}
		start += count
	}
	return ranges
}
