package cmd

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"feedcache/pkg/store/keys"
)

var statsMetrics bool

func init() {
	statsCmd.Flags().BoolVar(&statsMetrics, "metrics", false, "dump all metrics in the Prometheus text format")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show partition sizes and engine usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, done, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer done()

		out := cmd.OutOrStdout()
		st, err := a.Store.Stats()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "store: %s\n", st.Path)
		for _, name := range keys.Partitions {
			fmt.Fprintf(out, "  %-20s %s\n", name, humanize.Comma(int64(st.Partitions[name])))
		}
		fmt.Fprintf(out, "disk: %s  wal: %s  l0 files: %d\n", humanize.IBytes(st.DiskBytes), humanize.IBytes(st.WALBytes), st.L0Files)

		if !statsMetrics {
			return nil
		}
		families, err := a.Registry.Gather()
		if err != nil {
			return err
		}
		sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
				return err
			}
		}
		return nil
	},
}
