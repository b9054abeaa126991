// Package cmd assembles the xsra command-line tree, grounded on
// cmd/bio-pamtool/cmd/main.go's cmdline.Command/cmdutil.RunnerFunc
// subcommand pattern.
package cmd

import (
	"v.io/x/lib/cmdline"
)

// Run is the xsra CLI entry point, invoked from cmd/xsra/main.go after
// grail.Init().
func Run() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(&cmdline.Command{
		Name:  "xsra",
		Short: "Extract FASTQ/FASTA/BINSEQ/VBINSEQ records from SRA archives",
		Children: []*cmdline.Command{
			newCmdDump(),
			newCmdRecode(),
			newCmdDescribe(),
			newCmdPrefetch(),
		},
	})
}
