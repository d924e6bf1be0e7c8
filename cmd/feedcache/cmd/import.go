package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"feedcache/pkg/state/shutdown"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Apply JSON-lines events from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		a, done, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer done()

		ctx, cancel := shutdown.SetupSignalHandler(cmd.Context())
		defer cancel()
		if err := a.Start(ctx); err != nil {
			return err
		}

		counts, err := a.Import(ctx, in)
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d, skipped %d, rejected %d\n", counts.Applied, counts.Skipped, counts.Rejected)
		return err
	},
}
