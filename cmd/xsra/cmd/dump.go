package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"

	"github.com/grailbio/xsra/internal/sra"
	"github.com/grailbio/xsra/pkg/coordinator"
	"github.com/grailbio/xsra/pkg/filter"
	"github.com/grailbio/xsra/pkg/sink"
	"github.com/grailbio/xsra/pkg/stats"
)

type dumpFlags struct {
	format      *string
	compression *string
	split       *bool
	outdir      *string
	prefix      *string
	threads     *int
	spotLimit   *int64
	minLen      *uint
	skipTech    *bool
	include     *string
	pipe        *bool
	keepEmpty   *bool
	recordCap   *int
}

func newCmdDump() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "dump",
		Short:    "Extract an SRA accession to FASTQ or FASTA",
		ArgsName: "accession",
	}
	flags := dumpFlags{
		format:      cmd.Flags.String("format", "fastq", "Output format: fastq or fasta"),
		compression: cmd.Flags.String("compression", "none", "Output compression: none, gzip, bgzf, or zstd"),
		split:       cmd.Flags.Bool("split", false, "Write one file per segment id instead of interleaving to stdout"),
		outdir:      cmd.Flags.String("outdir", "", "Output directory (required with -split unless -pipe)"),
		prefix:      cmd.Flags.String("prefix", "", "Output filename prefix"),
		threads:     cmd.Flags.Int("threads", 0, "Worker thread count; 0 means runtime.NumCPU()"),
		spotLimit:   cmd.Flags.Int64("spot-limit", 0, "Stop after this many spots; 0 means no limit"),
		minLen:      cmd.Flags.Uint("min-len", 0, "Discard segments shorter than this length"),
		skipTech:    cmd.Flags.Bool("skip-technical", false, "Discard technical (non-biological) segments"),
		include:     cmd.Flags.String("include", "", "Comma-separated segment ids to keep; empty keeps all"),
		pipe:        cmd.Flags.Bool("pipe", false, "Write to named pipes instead of regular files"),
		keepEmpty:   cmd.Flags.Bool("keep-empty", false, "Keep sink files that received no data"),
		recordCap:   cmd.Flags.Int("record-capacity", coordinator.DefaultRecordCapacity, "Spots accumulated per worker before a hand-off to the Sink Array"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("dump takes one accession argument, but got %v", argv)
		}
		return runDump(argv[0], flags)
	})
	return cmd
}

func parseInclude(s string) (map[int]bool, error) {
	if s == "" {
		return nil, nil
	}
	include := map[int]bool{}
	for _, tok := range strings.Split(s, ",") {
		sid, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return nil, fmt.Errorf("parsing -include: %w", err)
		}
		include[sid] = true
	}
	return include, nil
}

func parseCompression(s string) (sink.Compression, error) {
	switch s {
	case "none", "":
		return sink.None, nil
	case "gzip":
		return sink.Gzip, nil
	case "bgzf":
		return sink.Bgzf, nil
	case "zstd":
		return sink.Zstd, nil
	default:
		return 0, fmt.Errorf("unknown -compression %q", s)
	}
}

func runDump(accession string, flags dumpFlags) error {
	include, err := parseInclude(*flags.include)
	if err != nil {
		return err
	}
	compression, err := parseCompression(*flags.compression)
	if err != nil {
		return err
	}

	sinkKind := sink.Stdout
	if *flags.split {
		sinkKind = sink.RegularFile
	}
	if *flags.pipe {
		sinkKind = sink.NamedPipe
	}

	var spotLimit *uint64
	if *flags.spotLimit > 0 {
		l := uint64(*flags.spotLimit)
		spotLimit = &l
	}

	cfg := coordinator.Config{
		Open: func(ctx context.Context) (sra.Source, error) {
			return sra.Open(ctx, accession)
		},
		Output: sink.OutputSpec{
			Format:      *flags.format,
			Compression: compression,
			Split:       *flags.split,
			Outdir:      *flags.outdir,
			Prefix:      *flags.prefix,
			SinkKind:    sinkKind,
			KeepEmpty:   *flags.keepEmpty,
			Threads:     *flags.threads,
		},
		Filter: filter.Spec{
			Include:       include,
			SkipTechnical: *flags.skipTech,
			MinLen:        uint32(*flags.minLen),
		},
		Threads:        *flags.threads,
		SpotLimit:      spotLimit,
		RecordCapacity: *flags.recordCap,
	}

	result, err := coordinator.Run(context.Background(), cfg)
	if err != nil {
		return err
	}
	vlog.Infof("xsra dump: processed %d spots, wrote %d reads", result.Spots, result.Reads)
	return stats.WriteSummary(os.Stderr, result)
}
