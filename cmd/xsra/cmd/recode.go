package cmd

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"

	"github.com/grailbio/xsra/internal/sra"
	"github.com/grailbio/xsra/pkg/recode"
)

func newCmdRecode() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "recode",
		Short:    "Recode an SRA accession directly to BINSEQ or VBINSEQ",
		ArgsName: "accession output-path",
	}
	flavorFlag := cmd.Flags.String("flavor", "binseq", "Target binary format: binseq or vbinseq")
	primaryFlag := cmd.Flags.Int("primary-sid", 0, "Segment id encoded as the primary record")
	extendedFlag := cmd.Flags.Int("extended-sid", -1, "Segment id encoded as the paired/mate record; -1 for unpaired")
	blockSizeFlag := cmd.Flags.Uint64("block-size", 1<<16, "Nominal block size in bytes (VBINSEQ only)")
	threadsFlag := cmd.Flags.Int("threads", 0, "Worker thread count; 0 means runtime.NumCPU()")

	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("recode takes accession and output-path arguments, but got %v", argv)
		}
		var flavor recode.Flavor
		switch *flavorFlag {
		case "binseq":
			flavor = recode.Binseq
		case "vbinseq":
			flavor = recode.VBinseq
		default:
			return fmt.Errorf("unknown -flavor %q", *flavorFlag)
		}

		cfg := recode.Config{
			Open: func(ctx context.Context) (sra.Source, error) {
				return sra.Open(ctx, argv[0])
			},
			OutputPath:  argv[1],
			Flavor:      flavor,
			PrimarySID:  *primaryFlag,
			ExtendedSID: *extendedFlag,
			Paired:      *extendedFlag >= 0,
			BlockSize:   *blockSizeFlag,
			Threads:     *threadsFlag,
		}
		if err := recode.Run(context.Background(), cfg); err != nil {
			return err
		}
		vlog.Infof("xsra recode: wrote %s as %s", argv[1], *flavorFlag)
		return nil
	})
	return cmd
}
