package recode

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/xsra/internal/sra"
	"github.com/grailbio/xsra/pkg/encode/binseq"
	"github.com/grailbio/xsra/pkg/encode/vbinseq"
)

func fixedLengthSpot(rid uint64) sra.Spot {
	return sra.Spot{
		RID: rid,
		Segments: []sra.Segment{
			{SID: 0, RID: rid, Type: sra.Biological, Seq: bytes.Repeat([]byte("A"), 8), Qual: bytes.Repeat([]byte("I"), 8)},
			{SID: 1, RID: rid, Type: sra.Biological, Seq: bytes.Repeat([]byte("C"), 4), Qual: bytes.Repeat([]byte("I"), 4)},
		},
	}
}

func TestRunBinseqProducesValidHeader(t *testing.T) {
	spots := make([]sra.Spot, 0, 10)
	for i := uint64(1); i <= 10; i++ {
		spots = append(spots, fixedLengthSpot(i))
	}
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.bsq")

	cfg := Config{
		Open: func(ctx context.Context) (sra.Source, error) {
			return sra.NewFakeSource(spots), nil
		},
		OutputPath: outPath,
		Flavor:     Binseq,
		PrimarySID: 0,
		Threads:    2,
	}
	require.NoError(t, Run(context.Background(), cfg))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	h, err := binseq.ReadHeader(f)
	require.NoError(t, err)
	require.EqualValues(t, 8, h.SLen)
	require.False(t, h.Paired())
}

func TestRunBinseqPaired(t *testing.T) {
	spots := make([]sra.Spot, 0, 4)
	for i := uint64(1); i <= 4; i++ {
		spots = append(spots, fixedLengthSpot(i))
	}
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.bsq")

	cfg := Config{
		Open: func(ctx context.Context) (sra.Source, error) {
			return sra.NewFakeSource(spots), nil
		},
		OutputPath:  outPath,
		Flavor:      Binseq,
		PrimarySID:  0,
		ExtendedSID: 1,
		Paired:      true,
		Threads:     1,
	}
	require.NoError(t, Run(context.Background(), cfg))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	h, err := binseq.ReadHeader(f)
	require.NoError(t, err)
	require.EqualValues(t, 8, h.SLen)
	require.EqualValues(t, 4, h.XLen)
}

func TestRunBinseqRejectsVariableLength(t *testing.T) {
	spots := []sra.Spot{
		{RID: 1, Segments: []sra.Segment{{SID: 0, Seq: bytes.Repeat([]byte("A"), 8)}}},
		{RID: 2, Segments: []sra.Segment{{SID: 0, Seq: bytes.Repeat([]byte("A"), 9)}}},
	}
	dir := t.TempDir()
	cfg := Config{
		Open: func(ctx context.Context) (sra.Source, error) {
			return sra.NewFakeSource(spots), nil
		},
		OutputPath: filepath.Join(dir, "out.bsq"),
		Flavor:     Binseq,
		PrimarySID: 0,
		Threads:    1,
	}
	require.Error(t, Run(context.Background(), cfg))
	_, err := os.Stat(cfg.OutputPath)
	require.Truef(t, os.IsNotExist(err), "variance failure must leave no output file at %s, stat err = %v", cfg.OutputPath, err)
}

func TestRunVBinseq(t *testing.T) {
	spots := make([]sra.Spot, 0, 5)
	for i := uint64(1); i <= 5; i++ {
		spots = append(spots, fixedLengthSpot(i))
	}
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.vbq")

	cfg := Config{
		Open: func(ctx context.Context) (sra.Source, error) {
			return sra.NewFakeSource(spots), nil
		},
		OutputPath: outPath,
		Flavor:     VBinseq,
		PrimarySID: 0,
		BlockSize:  1024,
		Threads:    2,
	}
	require.NoError(t, Run(context.Background(), cfg))

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	h, err := vbinseq.ReadHeader(f)
	require.NoError(t, err)
	require.EqualValues(t, 1024, h.BlockSize)
	require.True(t, h.HasQuality)
	require.False(t, h.Paired)
}
