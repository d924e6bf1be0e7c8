package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"feedcache/pkg/models"
	"feedcache/pkg/store"
	"feedcache/pkg/store/pagination"
)

var (
	feedLimit int
	feedPage  int
	feedSince int64
	feedDir   string
)

func init() {
	feedCmd.Flags().IntVarP(&feedLimit, "limit", "n", pagination.DefaultLimit, "posts per page")
	feedCmd.Flags().IntVarP(&feedPage, "page", "p", 0, "page number, newest first")
	feedCmd.Flags().Int64Var(&feedSince, "from", -1, "start at this unix timestamp instead of paging")
	feedCmd.Flags().StringVar(&feedDir, "direction", "backward", "walk direction with --from (forward or backward)")

	rootCmd.AddCommand(feedCmd, noteCmd, profileCmd, contactsCmd, authorsCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print the home feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, done, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer done()

		var notes []models.TextNote
		if feedSince >= 0 {
			dir, err := pagination.ParseDirection(feedDir)
			if err != nil {
				return err
			}
			notes, err = a.Store.GetTextNotesFromTimestamp(uint64(feedSince), dir, feedLimit)
			if err != nil {
				return err
			}
		} else {
			notes, err = a.Store.GetFeed(feedLimit, feedPage)
			if err != nil {
				return err
			}
		}

		names := map[models.PublicKey]string{}
		for _, n := range notes {
			name, ok := names[n.Author]
			if !ok {
				name = displayName(a.Store, n.Author)
				names[n.Author] = name
			}
			printNote(cmd.OutOrStdout(), name, n)
		}
		return nil
	},
}

var noteCmd = &cobra.Command{
	Use:   "note <id>",
	Short: "Print one text note by event id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseEventID(args[0])
		if err != nil {
			return err
		}
		a, done, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer done()

		n, err := a.Store.GetTextNote(id)
		if errors.Is(err, store.ErrNotFound) {
			return errors.Newf("note %s not found", id)
		}
		if err != nil {
			return err
		}
		printNote(cmd.OutOrStdout(), displayName(a.Store, n.Author), n)
		if reply, ok := n.ReplyTo(); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "  reply to %s\n", reply)
		}
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <pubkey>",
	Short: "Print the stored profile of an author",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pk, err := models.ParsePublicKey(args[0])
		if err != nil {
			return err
		}
		a, done, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer done()

		p, err := a.Store.GetProfile(pk)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List the local identity's contacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, done, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer done()

		list, err := a.Store.GetContacts()
		if err != nil {
			return err
		}
		for _, c := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.PublicKey, c.RelayURL, c.Alias)
		}
		return nil
	},
}

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "List every known author",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, done, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer done()

		list, err := a.Store.GetAuthors()
		if err != nil {
			return err
		}
		for _, pk := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", pk, displayName(a.Store, pk))
		}
		return nil
	},
}

func displayName(s *store.Store, pk models.PublicKey) string {
	p, err := s.GetProfile(pk)
	if err != nil {
		return pk.Short()
	}
	return p.DisplayNameOr(pk)
}

func printNote(w io.Writer, name string, n models.TextNote) {
	ts := time.Unix(int64(n.Timestamp), 0).UTC().Format(time.RFC3339)
	content := strings.ReplaceAll(n.Content, "\n", " ")
	fmt.Fprintf(w, "%s  %-20s  %s\n", ts, name, content)
}
