package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/spf13/cobra"

	"feedcache/pkg/state"
	"feedcache/pkg/store/keys"
)

var inspectSamples int

func init() {
	inspectCmd.Flags().IntVar(&inspectSamples, "samples", 3, "keys to print per partition")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Walk raw engine keys and count them by partition tag",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := state.PathsFor(effective.Config.Store.DBPath).Store
		db, err := pebble.Open(path, &pebble.Options{ReadOnly: true})
		if err != nil {
			return err
		}
		defer db.Close()

		iter, err := db.NewIter(nil)
		if err != nil {
			return err
		}
		defer iter.Close()

		counts := map[byte]int{}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "inspecting %s\n", path)
		for iter.First(); iter.Valid(); iter.Next() {
			k := iter.Key()
			if len(k) == 0 {
				continue
			}
			tag := k[0]
			counts[tag]++
			if counts[tag] <= inspectSamples {
				fmt.Fprintf(out, "  %-20s %s (%d bytes)\n", tagName(tag), hex.EncodeToString(k[1:]), len(iter.Value()))
			}
		}
		if err := iter.Error(); err != nil {
			return err
		}

		fmt.Fprintln(out, "summary:")
		total := 0
		for tag := 0; tag < 256; tag++ {
			n := counts[byte(tag)]
			if n == 0 {
				continue
			}
			total += n
			fmt.Fprintf(out, "  %-20s %d\n", tagName(byte(tag)), n)
		}
		fmt.Fprintf(out, "  %-20s %d\n", "total", total)
		return nil
	},
}

func tagName(tag byte) string {
	if tag == keys.SystemTag {
		return "system"
	}
	if int(tag) <= len(keys.Partitions) {
		return keys.Partitions[tag-1]
	}
	return fmt.Sprintf("unknown(0x%02x)", tag)
}
