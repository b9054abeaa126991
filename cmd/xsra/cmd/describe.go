package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/xsra/internal/sra"
	"github.com/grailbio/xsra/pkg/recode"
)

func newCmdDescribe() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "describe",
		Short:    "Report per-segment length and quality statistics for an accession",
		ArgsName: "accession",
	}
	sidsFlag := cmd.Flags.String("sids", "", "Comma-separated segment ids to describe; empty describes every segment present in the first spot")

	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("describe takes one accession argument, but got %v", argv)
		}
		accession := argv[0]
		openFunc := func(ctx context.Context) (sra.Source, error) {
			return sra.Open(ctx, accession)
		}

		sids, err := parseSIDs(context.Background(), *sidsFlag, openFunc)
		if err != nil {
			return err
		}

		stats, err := recode.Describe(context.Background(), openFunc, sids)
		if err != nil {
			return err
		}
		for _, s := range stats {
			fmt.Fprintf(env.Stdout, "segment %d (%s): n=%d min=%d mean=%.1f max=%d mean_quality=%.2f\n",
				s.SID, s.Type, s.Count, s.MinLen, s.MeanLen, s.MaxLen, s.MeanQuality)
		}
		return nil
	})
	return cmd
}

// parseSIDs parses a comma-separated sid list, or, if s is empty, discovers
// every sid present in the accession's first spot.
func parseSIDs(ctx context.Context, s string, open func(context.Context) (sra.Source, error)) ([]int, error) {
	if s != "" {
		var sids []int
		for _, tok := range strings.Split(s, ",") {
			sid, err := strconv.Atoi(strings.TrimSpace(tok))
			if err != nil {
				return nil, fmt.Errorf("parsing -sids: %w", err)
			}
			sids = append(sids, sid)
		}
		return sids, nil
	}

	src, err := open(ctx)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	iter, err := src.Range(sra.RowRange{Start: 1, Stop: 1})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	if !iter.Scan() {
		if err := iter.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("describe: archive has no spots")
	}
	spot := iter.Spot()
	sids := make([]int, len(spot.Segments))
	for i := range spot.Segments {
		sids[i] = i
	}
	return sids, nil
}
