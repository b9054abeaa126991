package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/xsra/internal/sra"
	"github.com/grailbio/xsra/pkg/filter"
	"github.com/grailbio/xsra/pkg/sink"
)

func makeSpot(rid uint64) sra.Spot {
	return sra.Spot{
		RID: rid,
		Segments: []sra.Segment{
			{SID: 0, RID: rid, Type: sra.Biological, Seq: []byte("ACGTACGTAC"), Qual: []byte("IIIIIIIIII")},
			{SID: 1, RID: rid, Type: sra.Biological, Seq: []byte("TTTTTTTTTT"), Qual: []byte("IIIIIIIIII")},
		},
	}
}

func TestRunSplitsAcrossSinks(t *testing.T) {
	spots := make([]sra.Spot, 0, 20)
	for i := uint64(1); i <= 20; i++ {
		spots = append(spots, makeSpot(i))
	}

	dir := t.TempDir()
	cfg := Config{
		Open: func(ctx context.Context) (sra.Source, error) {
			return sra.NewFakeSource(spots), nil
		},
		Output: sink.OutputSpec{
			Format:   "fastq",
			Split:    true,
			Outdir:   dir,
			Prefix:   "r",
			SinkKind: sink.RegularFile,
		},
		Threads:        3,
		RecordCapacity: 4,
		MaxSIDs:        2,
	}

	st, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.EqualValues(t, 20, st.Spots)
	require.Equal(t, []uint64{20, 20}, st.Written)

	for _, sid := range []int{0, 1} {
		path := filepath.Join(dir, "r"+strconv.Itoa(sid)+".fastq")
		data, err := os.ReadFile(path)
		require.NoErrorf(t, err, "reading %s", path)
		require.NotZero(t, len(data), "%s is empty", path)
	}
}

func TestRunAppliesFilter(t *testing.T) {
	spots := []sra.Spot{makeSpot(1), makeSpot(2)}
	dir := t.TempDir()
	cfg := Config{
		Open: func(ctx context.Context) (sra.Source, error) {
			return sra.NewFakeSource(spots), nil
		},
		Output: sink.OutputSpec{
			Format:   "fastq",
			Split:    true,
			Outdir:   dir,
			Prefix:   "r",
			SinkKind: sink.RegularFile,
		},
		Filter:  filter.Spec{Include: map[int]bool{0: true}},
		Threads: 1,
		MaxSIDs: 2,
	}

	st, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, st.Written, 1, "sid 1 should be filtered entirely")
	require.EqualValues(t, 2, st.Written[0])
}

func TestRunWarnsOnSpotLimitExceedingTotal(t *testing.T) {
	spots := []sra.Spot{makeSpot(1), makeSpot(2), makeSpot(3)}
	dir := t.TempDir()
	limit := uint64(1000)
	cfg := Config{
		Open: func(ctx context.Context) (sra.Source, error) {
			return sra.NewFakeSource(spots), nil
		},
		Output: sink.OutputSpec{
			Format:   "fastq",
			Split:    true,
			Outdir:   dir,
			Prefix:   "r",
			SinkKind: sink.RegularFile,
		},
		Threads:   2,
		MaxSIDs:   2,
		SpotLimit: &limit,
	}

	st, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.EqualValues(t, 3, st.Spots, "a spot-limit above the archive's total must be coerced down, not truncate to zero")
}
