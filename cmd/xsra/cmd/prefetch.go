package cmd

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"

	"github.com/grailbio/xsra/internal/prefetch"
	"github.com/grailbio/xsra/internal/resolve"
)

func newCmdPrefetch() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "prefetch",
		Short:    "Resolve an SRA accession to a download URL and fetch it locally",
		ArgsName: "accession output-path",
	}
	fullQualityFlag := cmd.Flags.Bool("full-quality", false, "Prefer the full-quality (non-lite) archive over the lite variant")
	providerFlag := cmd.Flags.String("provider", "https", "Preferred download provider: https, gcp, or aws (gcp resolves to a gs:// URL, which the download step rejects as an unsupported scheme)")

	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("prefetch takes accession and output-path arguments, but got %v", argv)
		}
		accession, dest := argv[0], argv[1]

		var provider resolve.Provider
		switch *providerFlag {
		case "https", "":
			provider = resolve.Https
		case "gcp":
			provider = resolve.GCP
		case "aws":
			provider = resolve.AWS
		default:
			return fmt.Errorf("unknown -provider %q", *providerFlag)
		}

		ctx := context.Background()
		resolver := resolve.NewEntrezResolver(nil)
		url, err := resolver.Resolve(ctx, accession, *fullQualityFlag, provider)
		if err != nil {
			return err
		}
		vlog.Infof("xsra prefetch: resolved %s to %s", accession, url)

		progress := func(written, total int64) {
			if total > 0 {
				vlog.VI(1).Infof("xsra prefetch: %d/%d bytes", written, total)
			}
		}
		if err := prefetch.Download(ctx, url, dest, progress); err != nil {
			return err
		}
		vlog.Infof("xsra prefetch: wrote %s", dest)
		return nil
	})
	return cmd
}
